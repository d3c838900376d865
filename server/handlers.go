package server

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"authgate/herr"
)

var greetingTmpl = template.Must(template.New("greeting").Parse(
	`<h1>Welcome, {{.Name}}</h1><p><a href="/logout">Sign out</a></p>`))

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) *herr.Error {
	result, err := s.sessionManager.GetCurrentSession(r)
	if err == nil && result != nil && result.User != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := greetingTmpl.Execute(w, result.User); err != nil {
			return herr.Internal(err, "Error rendering greeting")
		}
		return nil
	}

	http.ServeFile(w, r, filepath.Join(s.cfg.WebDir, "index.html"))
	return nil
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) *herr.Error {
	w.Header().Set("Content-Type", "application/json")
	response := struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}{
		Status:  "ok",
		Version: "1.0.0",
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		return herr.Internal(err, "Error encoding health response")
	}
	return nil
}

// handleLogout clears the local session best effort and always sends the
// browser to the provider's logout endpoint, so repeated logouts are
// harmless.
func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) *herr.Error {
	result, err := s.sessionManager.GetCurrentSession(r)
	if err == nil && result != nil && result.Session != nil {
		if err := s.sessionManager.InvalidateSession(result.Session.ID); err != nil {
			slog.Warn("error invalidating session on logout", "err", err)
		}
	}
	s.sessionManager.DeleteSessionCookie(w)

	http.Redirect(w, r, s.rp.LogoutURL(), http.StatusFound)
	return nil
}
