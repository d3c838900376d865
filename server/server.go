package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"authgate/auth"
	"authgate/config"
	"authgate/herr"
	mw "authgate/middleware"
	"authgate/session"
	"authgate/store"
)

type server struct {
	cfg            *config.Config
	store          store.Store
	sessionManager *session.Manager
	rp             *auth.RelyingParty
	registry       *prometheus.Registry
}

func New(ctx context.Context, cfg *config.Config) (*server, error) {
	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error creating the store: %w", err)
	}
	sessionManager := session.NewManager(st, cfg.SessionSecret, cfg.SessionExpirationDays, cfg.SessionRefreshDays, cfg.IsProd())
	rp, err := auth.New(ctx, auth.Config{
		Domain:       cfg.Domain,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		IssuerURL:    cfg.IssuerURL,
		CallbackURL:  cfg.CallbackURL(),
		BaseURL:      cfg.BaseURL,
		IsProd:       cfg.IsProd(),
		Store:        st,
		SessionMgr:   sessionManager,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating relying party: %w", err)
	}

	return &server{
		cfg:            cfg,
		store:          st,
		sessionManager: sessionManager,
		rp:             rp,
		registry:       prometheus.NewRegistry(),
	}, nil
}

// Handler assembles the route table and middleware chain.
func (s *server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", herr.Wrap(s.handleHome))
	mux.Handle("GET /login", herr.Wrap(s.rp.HandleLogin))
	mux.Handle("GET /callback", herr.Wrap(s.rp.HandleCallback))
	mux.Handle("GET /api/health", herr.Wrap(s.handleHealth))
	mux.Handle("GET /logout", herr.Wrap(s.handleLogout))
	mux.Handle("GET /api/session", herr.Wrap(s.sessionManager.HandleCurrentSession))
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	allowedOrigins := map[string]struct{}{
		s.cfg.BaseURL: {},
	}
	protectedRoutes := map[string]struct{}{
		"/api/session": {},
	}

	return mw.Chain(
		mux,
		mw.RateLimit(15, 50),
		mw.Logger(),
		mw.CORS(allowedOrigins),
		mw.Protect(protectedRoutes, s.sessionManager),
		mw.Metrics(s.registry),
	)
}

func (s *server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	slog.Info("Server is listening", "port", s.cfg.Port)
	return http.ListenAndServe(addr, s.Handler())
}
