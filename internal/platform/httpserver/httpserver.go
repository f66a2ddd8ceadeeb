// Package httpserver builds the HTTP server from the process configuration.
package httpserver

import (
	"net/http"

	"caseflow/internal/platform/config"
)

// New returns a server listening on the configured address with the
// configured header and idle timeouts applied.
func New(cfg config.HTTP, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
