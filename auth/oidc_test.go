package auth

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestClassifyExchangeErr(t *testing.T) {
	rejected := fmt.Errorf("oauth2: %w", &oauth2.RetrieveError{})
	if !errors.Is(classifyExchangeErr(rejected), ErrExchangeRejected) {
		t.Error("provider error responses should classify as rejected")
	}

	transport := errors.New("dial tcp: connection refused")
	if !errors.Is(classifyExchangeErr(transport), ErrProviderUnreachable) {
		t.Error("transport errors should classify as unreachable")
	}
}

func TestLogoutURL(t *testing.T) {
	rp := &RelyingParty{cfg: Config{
		Domain:   "example.auth0.com",
		ClientID: "client-123",
		BaseURL:  "http://localhost:3000",
	}}

	got := rp.LogoutURL()
	if !strings.HasPrefix(got, "https://example.auth0.com/v2/logout?") {
		t.Errorf("unexpected logout endpoint: %s", got)
	}
	if !strings.Contains(got, "client_id=client-123") {
		t.Errorf("expected client id in %s", got)
	}
	if !strings.Contains(got, "returnTo=http%3A%2F%2Flocalhost%3A3000%2F") {
		t.Errorf("expected returnTo in %s", got)
	}
}
