// Package httpserver builds the complaintdesk HTTP server with the timeouts
// from config applied.
package httpserver

import (
	"net/http"

	"complaintdesk/internal/platform/config"
)

// New builds the server for the complaint API. Per-request deadlines are the
// router's timeout middleware's job; this only bounds connection-level reads
// and idle keep-alives.
func New(addr string, handler http.Handler, cfg config.HTTPConfig) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
