package herr

import (
	"log/slog"
	"net/http"
)

type Error struct {
	Error       error
	HTTPMessage string
	Desc        string
	Code        int
}

type Wrap func(w http.ResponseWriter, r *http.Request) *Error

func (fn Wrap) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if e := fn(w, r); e != nil {
		slog.Error("Error in handler:", "desc", e.Desc, "httpMessage", e.HTTPMessage, "code", e.Code, "err", e.Error)
		http.Error(w, e.HTTPMessage, e.Code)
	}
}

func Internal(err error, desc string) *Error {
	return &Error{
		HTTPMessage: "Internal server error",
		Desc:        desc,
		Code:        http.StatusInternalServerError,
		Error:       err,
	}
}

func BadRequest(err error, desc string) *Error {
	return &Error{
		HTTPMessage: "Bad request",
		Desc:        desc,
		Code:        http.StatusBadRequest,
		Error:       err,
	}
}

func Unauthorized(err error, desc string) *Error {
	return &Error{
		HTTPMessage: "Unauthorized",
		Desc:        desc,
		Code:        http.StatusUnauthorized,
		Error:       err,
	}
}

func BadGateway(err error, desc string) *Error {
	return &Error{
		HTTPMessage: "Bad gateway",
		Desc:        desc,
		Code:        http.StatusBadGateway,
		Error:       err,
	}
}
