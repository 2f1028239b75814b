// Package observability provides metrics and monitoring HTTP endpoints.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Check is a named readiness probe. A failing probe takes the service out
// of rotation without affecting liveness.
type Check struct {
	Name  string
	Probe func() error
}

// Server exposes metrics, liveness, and readiness on a port separate from
// the API, so monitoring traffic never competes with long-running dispatch
// requests.
type Server struct {
	server *http.Server
	addr   string
	checks []Check
}

// NewServer creates the monitoring HTTP server. Readiness reflects the
// given checks; with none, /readyz always reports ready.
func NewServer(addr string, checks ...Check) *Server {
	s := &Server{addr: addr, checks: checks}

	mux := http.NewServeMux()

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Liveness: the process is up. Separate from the API liveness route.
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Readiness: dependencies a dispatch request needs are usable.
	mux.HandleFunc("/readyz", s.handleReady)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	for _, c := range s.checks {
		if err := c.Probe(); err != nil {
			log.Warn().Err(err).Str("check", c.Name).Msg("Readiness check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "not ready: %s", c.Name)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// Start starts the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.addr).Msg("Starting observability HTTP server")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Observability HTTP server error")
		}
	}()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down observability HTTP server")
	return s.server.Shutdown(ctx)
}
