package infra

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// HTTPServer wraps http.Server with the startup and shutdown flow main uses.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer builds the API server. PORT is accepted with or without a
// leading colon. The write timeout comes from config because preview and
// video submissions sit on slow generative calls; the read header timeout
// stays short regardless so idle clients cannot pin connections.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	addr := strings.TrimSpace(cfg.Port)
	if addr != "" && !strings.HasPrefix(addr, ":") && !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	return &HTTPServer{server: srv}
}

// Addr returns the listen address the server was configured with.
func (s *HTTPServer) Addr() string {
	if s == nil || s.server == nil {
		return ""
	}
	return s.server.Addr
}

// Start runs the HTTP server in the current goroutine.
func (s *HTTPServer) Start() error {
	if s.server == nil {
		return nil
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
