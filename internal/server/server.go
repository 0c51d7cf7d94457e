// Package server implements the HTTP surface of the viewer: the JSON API
// under /api and the static UI bundle for everything else.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/josancamon19/sqlite-viewer/internal/db"
	"golang.org/x/sync/errgroup"
)

// Config holds everything the server needs.
type Config struct {
	Host      string
	Port      int
	PublicDir string
	Manager   *db.Manager
	Logger    *slog.Logger
}

// Server owns the HTTP lifecycle.
type Server struct {
	host      string
	port      int
	publicDir string
	manager   *db.Manager
	logger    *slog.Logger
}

// New creates a Server instance.
func New(cfg Config) *Server {
	return &Server{
		host:      cfg.Host,
		port:      cfg.Port,
		publicDir: cfg.PublicDir,
		manager:   cfg.Manager,
		logger:    cfg.Logger,
	}
}

// Handler builds the complete route tree. Exposed separately from Serve
// so tests can drive it through httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		s.recoverJSON,
	)
	setupRoutes(r, newHandlers(s.manager, s.publicDir, s.logger))
	return r
}

// Serve starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	s.logger.Info("sqlite viewer running",
		"addr", fmt.Sprintf("http://%s:%d", displayHost(s.host), s.port))
	if path := s.manager.Path(); path != "" {
		s.logger.Info("using database", "path", path)
	}

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// recoverJSON turns handler panics into a 500 JSON error so one bad
// request cannot take the process down. Aborted responses re-panic for
// the HTTP stack to handle.
func (s *Server) recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("handler panic", "path", r.URL.Path, "panic", rec)
				respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// displayHost is what a browser should dial when the bind address is a
// wildcard.
func displayHost(host string) string {
	switch host {
	case "0.0.0.0", "::", "0:0:0:0:0:0:0:0":
		return "127.0.0.1"
	}
	return host
}
