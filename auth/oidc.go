package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"authgate/cryptoutil"
	"authgate/herr"
	"authgate/session"
	"authgate/store"
)

const stateCookieName = "oauth_state"

// Callback failures fall into three classes so handlers can map them to
// distinct HTTP responses instead of leaking a generic 500.
var (
	ErrMalformedCallback   = errors.New("malformed callback")
	ErrExchangeRejected    = errors.New("code exchange rejected")
	ErrProviderUnreachable = errors.New("provider unreachable")
)

type Config struct {
	// Domain is the identity provider's domain, e.g. "example.auth0.com".
	Domain       string
	ClientID     string
	ClientSecret string
	// IssuerURL overrides the discovery issuer derived from Domain.
	IssuerURL   string
	CallbackURL string
	// BaseURL is where the provider sends the browser back after logout.
	BaseURL    string
	IsProd     bool
	Store      store.Store
	SessionMgr *session.Manager
}

// RelyingParty drives the authorization-code flow against the provider.
// Discovery, token exchange and ID token verification are delegated to
// go-oidc and oauth2.
type RelyingParty struct {
	cfg      Config
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
}

func New(ctx context.Context, cfg Config) (*RelyingParty, error) {
	issuer := cfg.IssuerURL
	if issuer == "" {
		issuer = "https://" + cfg.Domain + "/"
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("error discovering provider %s: %w", issuer, err)
	}

	return &RelyingParty{
		cfg: cfg,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (rp *RelyingParty) HandleLogin(w http.ResponseWriter, r *http.Request) *herr.Error {
	state, err := cryptoutil.State()
	if err != nil {
		return herr.Internal(err, "Failed to create OAuth state")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   rp.cfg.IsProd,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, rp.oauth.AuthCodeURL(state), http.StatusFound)
	return nil
}

func (rp *RelyingParty) HandleCallback(w http.ResponseWriter, r *http.Request) *herr.Error {
	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")
	storedState, err := r.Cookie(stateCookieName)
	if err != nil || storedState.Value != state {
		e := fmt.Errorf("%w: state mismatch", ErrMalformedCallback)
		return herr.BadRequest(e, "Invalid OAuth state")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	if errParam := query.Get("error"); errParam != "" {
		e := fmt.Errorf("%w: provider returned %q", ErrExchangeRejected, errParam)
		return herr.Unauthorized(e, "Provider denied the authorization request")
	}

	if code == "" {
		e := fmt.Errorf("%w: missing code", ErrMalformedCallback)
		return herr.BadRequest(e, "Missing authorization code")
	}

	profile, err := rp.exchange(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, ErrProviderUnreachable):
			return herr.BadGateway(err, "Provider unreachable during code exchange")
		default:
			return herr.Unauthorized(err, "Code exchange rejected")
		}
	}

	userID, err := rp.cfg.Store.UpsertUser(profile)
	if err != nil {
		return herr.Internal(err, "Failed to store user profile")
	}

	token, err := cryptoutil.Random()
	if err != nil {
		return herr.Internal(err, "Failed to generate session token")
	}
	sess, err := rp.cfg.SessionMgr.CreateSession(token, userID)
	if err != nil {
		return herr.Internal(err, "Failed to create session")
	}
	rp.cfg.SessionMgr.SetSessionCookie(w, token, sess.ExpiresAt)

	slog.Info("login completed", "subject", profile.Subject)
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// exchange swaps the authorization code for tokens, verifies the ID token
// and decodes the profile claims. Errors wrap ErrExchangeRejected or
// ErrProviderUnreachable.
func (rp *RelyingParty) exchange(ctx context.Context, code string) (*store.User, error) {
	token, err := rp.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, classifyExchangeErr(err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("%w: no id_token in token response", ErrExchangeRejected)
	}

	idToken, err := rp.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: id_token verification failed: %v", ErrExchangeRejected, err)
	}

	var claims struct {
		Subject           string `json:"sub"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
		Email             string `json:"email"`
		Picture           string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: decoding claims: %v", ErrExchangeRejected, err)
	}

	name := claims.Name
	if name == "" {
		name = claims.PreferredUsername
	}
	if name == "" {
		name = claims.Email
	}

	return &store.User{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    name,
		Picture: claims.Picture,
	}, nil
}

func classifyExchangeErr(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %v", ErrExchangeRejected, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnreachable, err)
}

// LogoutURL builds the provider's logout endpoint so the provider-side
// session ends too, with the browser sent back to the gateway home.
func (rp *RelyingParty) LogoutURL() string {
	logoutURL := url.URL{
		Scheme: "https",
		Host:   rp.cfg.Domain,
		Path:   "/v2/logout",
	}
	query := url.Values{
		"client_id": {rp.cfg.ClientID},
		"returnTo":  {rp.cfg.BaseURL + "/"},
	}
	logoutURL.RawQuery = query.Encode()
	return logoutURL.String()
}
