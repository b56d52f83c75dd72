// Package server exposes the relay's HTTP surface: the authenticated
// ingress endpoint, the WebSocket subscriber feed, and health/metrics.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"base-token-tracker/internal/hub"
	"base-token-tracker/internal/observability"
	"base-token-tracker/internal/storage"
	"base-token-tracker/internal/store"
)

// Server wires the relay store, broadcast hub and archive behind HTTP.
type Server struct {
	store    *store.TokenStore
	hub      *hub.Hub
	archive  storage.TokenArchive
	token    string
	metrics  *observability.Metrics
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// Options contains configuration for creating a Server.
type Options struct {
	Store   *store.TokenStore
	Hub     *hub.Hub
	Archive storage.TokenArchive
	// Token is the shared bearer secret for the ingress endpoint.
	Token   string
	Metrics *observability.Metrics
	Logger  *log.Logger
}

// New creates a new relay server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		store:   opts.Store,
		hub:     opts.Hub,
		archive: opts.Archive,
		token:   opts.Token,
		metrics: opts.Metrics,
		logger:  logger,
		upgrader: websocket.Upgrader{
			// Subscribers connect from arbitrary frontend origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Run serves the relay until ctx is cancelled, then shuts down cleanly,
// dropping all subscriber connections.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}

	go func() {
		<-ctx.Done()
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	s.logger.Printf("Relay listening on %s", addr)
	err := httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
