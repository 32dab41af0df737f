package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nguyentantai21042004/voxdrop/internal/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes /metrics, /healthz and /readyz
type Server struct {
	addr    string
	logger  logger.Logger
	metrics *Metrics
	ready   atomic.Bool

	srv      *http.Server
	listener net.Listener
	wg       sync.WaitGroup
}

// NewServer builds the HTTP server; call Start to begin listening
func NewServer(addr string, m *Metrics, log logger.Logger) *Server {
	s := &Server{addr: addr, logger: log, metrics: m}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start binds the listener and serves in the background
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(ctx, "Metrics server failed: %v", err)
		}
	}()

	s.logger.Info(ctx, "Metrics server listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, useful when listening on port 0
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// SetReady flips the readiness probe
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Shutdown stops the server and waits for the serve goroutine
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	s.wg.Wait()
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
