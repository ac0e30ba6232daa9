// Package httpapi exposes the authenticator and keychain over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/authenticator"
	"github.com/dmitrijs2005/gophauth/internal/keychain"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address  string
	logger   logging.Logger
	auth     *authenticator.Authenticator
	keychain *keychain.Keychain
	// keys persists keychain changes; nil when no key store is configured.
	keys *services.KeyService
	// serializes key creation and removal
	keysMu sync.Mutex
}

func NewServer(a string, l logging.Logger, auth *authenticator.Authenticator, kc *keychain.Keychain, keys *services.KeyService) *Server {
	return &Server{
		address:  a,
		logger:   l.With("module", "http_server"),
		auth:     auth,
		keychain: kc,
		keys:     keys,
	}
}

// Router returns the HTTP handler. Every route runs behind the
// authenticator middleware; routes that need a caller add RequireAuth.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.auth.HTTPMiddleware)

	r.Get("/ping", s.ping)
	r.Post("/signup", s.signUp)
	r.Post("/login", s.login)
	r.Post("/logout", s.logout)

	r.Group(func(r chi.Router) {
		r.Use(authenticator.RequireAuth)
		r.Get("/me", s.me)
		r.Get("/keychain", s.listKeys)
		r.Post("/keychain/{id}", s.createKey)
		r.Delete("/keychain/{id}", s.deleteKey)
		r.Post("/keychain/{id}/encrypt", s.encrypt)
		r.Post("/keychain/{id}/decrypt", s.decrypt)
	})

	return r
}

// Serve runs the server on lis until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}
