// Package server exposes a handler.Service over HTTP.
//
//	GET  /status?max=N   rendered snapshot, cut to N bytes
//	POST /status         register the PID in the body (PUT is accepted too)
//	GET  /metrics        prometheus metrics
//	GET  /healthz        liveness
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ja7ad/pidwatch/pkg/handler"
	"github.com/ja7ad/pidwatch/pkg/registry"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 5 * time.Second

// Server serves one handler.Service.
type Server struct {
	svc    handler.Service
	logger *slog.Logger
	http   *http.Server
}

// New returns a Server listening on addr once Run is called.
func New(addr string, svc handler.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, logger: logger.With("component", "http")}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed, panic-safe http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/status", handlers.MethodHandler{
		http.MethodGet:  http.HandlerFunc(s.status),
		http.MethodHead: http.HandlerFunc(s.status),
		http.MethodPost: http.HandlerFunc(s.register),
		http.MethodPut:  http.HandlerFunc(s.register),
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok\n")
	})

	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
	)(mux)
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener. It closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(sctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	s.logger.Info("stopped")
	return nil
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	max := -1
	if v := r.URL.Query().Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "max must be a non-negative integer", http.StatusBadRequest)
			return
		}
		max = n
	}

	body := handler.NewSession(s.svc).Next(max)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(body)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	// one extra byte so oversized bodies reach the handler and are rejected
	body, err := io.ReadAll(io.LimitReader(r.Body, handler.MaxWriteSize+1))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := s.svc.Write(body); err != nil {
		http.Error(w, err.Error(), StatusCode(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatusCode maps a Write error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusNoContent
	case errors.Is(err, handler.ErrWriteTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, handler.ErrParse):
		return http.StatusBadRequest
	case errors.Is(err, registry.ErrFull):
		return http.StatusInsufficientStorage
	default:
		return http.StatusServiceUnavailable
	}
}

type recoveryLogger struct{ l *slog.Logger }

func (r recoveryLogger) Println(v ...any) {
	r.l.Error("handler panic", "err", fmt.Sprint(v...))
}
