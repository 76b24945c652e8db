// Package web provides the optional local status server.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/user/honeyport/internal/util"
)

// Server is the status HTTP server. It must listen on an address that is
// not one of the monitored ports.
type Server struct {
	addr     string
	handlers *Handlers
	srv      *http.Server
}

// NewServer creates a new status server.
func NewServer(addr string, status StatusProvider, sessions SessionLister) *Server {
	return &Server{
		addr:     addr,
		handlers: NewHandlers(status, sessions),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handlers.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.handlers.APIGetStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/listeners", s.handlers.APIGetListeners).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions", s.handlers.APIGetSessions).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      otelhttp.NewHandler(s.Handler(), "honeyport-status"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	util.Info("Status server starting on %s", s.addr)

	if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Stop stops the status server.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.srv.Shutdown(ctx)
}
