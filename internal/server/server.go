package server

import (
	"context"
	"net/http"
	"time"
)

const (
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 10 * time.Second
	maxHeaderBytes      = 1024 * 10
)

// Server wraps the HTTP server with controlled startup and shutdown.
type Server struct {
	server *http.Server
}

// ListenAndServe blocks until the server stops. After Shutdown it returns http.ErrServerClosed.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections and waits for active ones within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// NewServer creates a server for router on address. Zero timeouts fall back to the defaults.
func NewServer(address string, router *ApiV1Router, readTimeout, writeTimeout time.Duration) *Server {
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	s := Server{&http.Server{
		Addr:              address,
		Handler:           router.Handler(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}}

	return &s
}
