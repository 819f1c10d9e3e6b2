package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 5 * time.Second

// Logger is the structured-logging interface the server depends on.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// StatusProvider supplies the facts /healthz and /metrics report. It is
// satisfied by a small adapter in cmd/nxbridge that wraps the MQTT client
// and the panel model, since neither alone knows both halves of bridge
// health (spec §6: the health surface reports panel-sync state and broker
// connectivity).
type StatusProvider interface {
	Synced() bool
	MQTTConnected() bool
	PartitionCount() int
	ZoneCount() int
}

// Server hosts the optional /healthz, /metrics, and debug websocket stream.
// It is a no-op unless Addr is non-empty, mirroring spec §6's
// HEALTH_ADDR="" default-disabled behavior.
type Server struct {
	addr   string
	logger Logger
	status StatusProvider
	hub    *Hub

	httpServer *http.Server
	startTime  time.Time
}

// New constructs a Server. addr is the listen address (e.g. ":8099"); an
// empty addr means the caller should not call Start.
func New(addr string, logger Logger, status StatusProvider, hub *Hub) *Server {
	return &Server{addr: addr, logger: logger, status: status, hub: hub}
}

// Enabled reports whether a listen address was configured.
func (s *Server) Enabled() bool {
	return s.addr != ""
}

// Start launches the HTTP listener in a background goroutine. It returns
// immediately; listener errors are logged, not returned, matching the
// teacher's api.Server.Start background-goroutine pattern.
func (s *Server) Start(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	s.startTime = time.Now()

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Get("/metrics", s.handleMetrics)
	if s.hub != nil {
		r.Get("/debug/events", s.hub.handleDebugStream)
		go s.hub.Run(ctx)
	}

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("observability server error", "error", err)
		}
	}()
	s.logger.Info("observability server listening", "addr", s.addr)
	return nil
}

// Close gracefully shuts the HTTP listener down.
func (s *Server) Close() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("observability: shutting down: %w", err)
	}
	return nil
}
