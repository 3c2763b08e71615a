package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kmorling/netscout/internal/discovery"
	"github.com/kmorling/netscout/internal/logging"
)

// Config holds the server configuration
type Config struct {
	Host     string
	Port     int
	LogLevel string

	// Scan holds the default options for scans triggered over the API.
	// The request body may override the range and timeout.
	Scan discovery.Options
}

// Server exposes discovery over HTTP: scan results as JSON, new scans via
// POST, and a WebSocket feed of probe results as they arrive.
type Server struct {
	config  *Config
	httpSrv *http.Server
	hub     *eventHub

	mu       sync.Mutex
	last     *discovery.RunResult
	scanning bool
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	// Initialize logging
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	s := &Server{
		config: config,
		hub:    newEventHub(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/devices", s.handleDevices)
	mux.HandleFunc("/v1/scans", s.handleScans)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/status", s.handleStatus)

	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Start starts the server and blocks until shutdown
func (s *Server) Start() error {
	logging.Info("Starting Netscout API server",
		zap.String("addr", s.httpSrv.Addr),
		zap.String("range", s.config.Scan.Range),
		zap.String("log_level", s.config.LogLevel),
	)

	go s.hub.run()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		} else {
			errChan <- nil
		}
	}()

	logging.Info("Server listening for requests", zap.String("addr", s.httpSrv.Addr))

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Error shutting down HTTP server", zap.Error(err))
	}

	s.hub.stop()

	// Sync logger
	logging.Sync()

	return nil
}

// lastResult returns the most recent completed run, if any.
func (s *Server) lastResult() *discovery.RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// beginScan marks a scan as in progress. Returns false if one is already
// running.
func (s *Server) beginScan() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanning {
		return false
	}
	s.scanning = true
	return true
}

func (s *Server) finishScan(result *discovery.RunResult) {
	s.mu.Lock()
	if result != nil {
		s.last = result
	}
	s.scanning = false
	s.mu.Unlock()
}

// logRequests wraps a handler with structured access logging.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack passes through to the wrapped writer so WebSocket upgrades work.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}
