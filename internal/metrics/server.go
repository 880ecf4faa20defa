package metrics

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerConfig holds configuration for the metrics HTTP server.
type ServerConfig struct {
	// Enabled indicates whether the metrics server should run.
	Enabled bool

	// Port is the port to listen on.
	Port int

	// Path is the path to serve metrics on.
	Path string

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
}

// DefaultServerConfig returns the default metrics server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Enabled:      false,
		Port:         9090,
		Path:         "/metrics",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Server exposes the recorded metrics over HTTP for Prometheus scraping.
// Intended for long-running invocations (watch scripts, CI loops); one-shot
// commands leave it disabled.
type Server struct {
	config ServerConfig
	server *http.Server
}

// NewServer creates a new metrics server.
func NewServer(config ServerConfig) *Server {
	return &Server{
		config: config,
	}
}

// Start starts the metrics HTTP server.
func (s *Server) Start() error {
	if !s.config.Enabled {
		return nil
	}

	// Make sure the metrics exist before they are scraped.
	Init()

	mux := http.NewServeMux()
	mux.Handle(s.config.Path, promhttp.Handler())

	// Add a simple health endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      mux,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Metrics are non-critical; report and carry on.
			fmt.Fprintf(os.Stderr, "metrics server error: %v\n", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	if s.server == nil {
		return ""
	}
	return s.server.Addr
}
