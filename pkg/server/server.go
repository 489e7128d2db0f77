package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/Layr-Labs/tweetproof-go/pkg/config"
	"github.com/Layr-Labs/tweetproof-go/pkg/metrics"
	"go.uber.org/zap"
)

/*
Server is the reference remote verification authority.

Routes:
  POST /api/verify:
    - Request: { message, signature, public_key_b64 }
    - Response: { valid }
    - Only the public key is ever received; signing stays with the client
    - Unparseable bodies are treated as an empty request and answer { valid: false }

  GET /healthz:
    - Response: { status, version }

  GET /metrics:
    - Prometheus text format

Every response carries the security headers from securityHeaders.
*/

// Version is reported by /healthz and overridden at build time
var Version = "dev"

// Server handles HTTP requests for the verification authority
type Server struct {
	cfg        *config.ServerConfig
	logger     *zap.Logger
	metrics    *metrics.Metrics
	httpServer *http.Server

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
}

// NewServer creates a new server instance
func NewServer(cfg *config.ServerConfig, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serverCfg := *cfg
	s := &Server{
		cfg:     &serverCfg,
		logger:  logger,
		metrics: metrics.NewMetrics(),
	}
	if s.cfg.MaxBodyBytes <= 0 {
		s.cfg.MaxBodyBytes = config.DefaultMaxBodyBytes
	}

	mux := http.NewServeMux()
	mux.Handle("/api/verify", s.instrument("/api/verify", http.HandlerFunc(s.handleVerify)))
	mux.Handle("/healthz", s.instrument("/healthz", http.HandlerFunc(s.handleHealth)))
	mux.Handle("/metrics", s.metrics.Handler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      securityHeaders(requestID(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start binds the port and serves in the background
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return fmt.Errorf("server already started")
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.logger.Sugar().Infow("Starting HTTP server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Sugar().Errorw("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight requests until ctx expires, then closes the server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		_ = s.httpServer.Close()
	}
	if done != nil {
		<-done
	}
	s.logger.Sugar().Infow("HTTP server stopped")
	return err
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}

// Metrics returns the server's metrics
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}
