// Package httpapi is the HTTP facade over the companion socket: it
// resolves entity names, gates on connectivity, dispatches one remote
// call per request, and reshapes the reply as JSON.
//
// Handlers hold no state between requests; concurrent requests each await
// their own remote completion independently.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sisyphean/rustlink/internal/entity"
	"github.com/sisyphean/rustlink/internal/observe"
)

// Controller is the slice of the companion-socket client the handlers
// need. Tests substitute a fake.
type Controller interface {
	Connected() bool
	SetEntityValue(ctx context.Context, entityID int64, value bool) (json.RawMessage, error)
	GetEntityInfo(ctx context.Context, entityID int64) (json.RawMessage, error)
}

// ServerInfo is echoed on /health so the downstream bot can tell which
// game server this bridge is paired with.
type ServerInfo struct {
	IP   string
	Port int
}

// Server holds the handler dependencies.
type Server struct {
	controller Controller
	directory  *entity.Directory
	info       ServerInfo
	metrics    *observe.Metrics

	// now is injected so the TC summary is testable against a fixed clock.
	now func() time.Time
}

// Option is a functional option for [New].
type Option func(*Server)

// WithClock overrides the wall clock used for upkeep estimates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithMetrics overrides the metrics instance; tests pass one backed by a
// manual reader.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates the facade.
func New(controller Controller, directory *entity.Directory, info ServerInfo, opts ...Option) *Server {
	s := &Server{
		controller: controller,
		directory:  directory,
		info:       info,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Register adds all API routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/entity/{name}/{action}", s.handleEntityAction)
	mux.HandleFunc("GET /api/entity/{name}/status", s.handleEntityStatus)
	mux.HandleFunc("GET /api/tc/{name}", s.handleTCSummary)
}
