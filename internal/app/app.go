// Package app wires the rustlink subsystems into a running bridge.
//
// New connects the companion socket and assembles the HTTP handler; Run
// serves until the context is cancelled; Close tears the socket down.
//
// For testing, inject a fake socket via WithSocket. When the option is
// not provided, New dials the game server from the config.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/sisyphean/rustlink/internal/config"
	"github.com/sisyphean/rustlink/internal/entity"
	"github.com/sisyphean/rustlink/internal/health"
	"github.com/sisyphean/rustlink/internal/httpapi"
	"github.com/sisyphean/rustlink/internal/observe"
	"github.com/sisyphean/rustlink/internal/rustplus"
)

// Socket is the companion-socket client as the app consumes it.
type Socket interface {
	Connected() bool
	SetEntityValue(ctx context.Context, entityID int64, value bool) (json.RawMessage, error)
	GetEntityInfo(ctx context.Context, entityID int64) (json.RawMessage, error)
	Close() error
}

// App owns the socket and HTTP server lifetimes.
type App struct {
	cfg     *config.Config
	metrics *observe.Metrics

	socket  Socket
	handler http.Handler

	// sockUp mirrors the last gauge movement so the up/down counter only
	// ever decrements after a matching increment. A dial that fails
	// outright fires StateError with no StateConnected before it.
	sockUp atomic.Bool

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithSocket injects a socket client instead of dialing the game server.
func WithSocket(s Socket) Option {
	return func(a *App) { a.socket = s }
}

// WithMetrics overrides the metrics instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New assembles the bridge: it dials the companion socket, builds the
// entity directory from config, and mounts the API, health, and metrics
// routes on one handler.
//
// A failed dial is not fatal. The HTTP server must come up regardless so
// /health can report the disconnected state; remote calls answer 503
// until the process is restarted against a reachable server.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Companion socket ──────────────────────────────────────────────
	if a.socket == nil {
		client, err := rustplus.Dial(ctx, rustplus.Config{
			ServerIP:    cfg.Rust.ServerIP,
			ServerPort:  cfg.Rust.ServerPort,
			PlayerID:    cfg.Rust.PlayerID,
			PlayerToken: cfg.Rust.PlayerToken,
			UseSSL:      cfg.Rust.UseSSL,
		},
			rustplus.WithOnStateChange(a.onStateChange),
			rustplus.WithOnBroadcast(a.onBroadcast),
		)
		if err != nil {
			slog.Warn("companion socket dial failed, serving disconnected",
				"server_ip", cfg.Rust.ServerIP,
				"server_port", cfg.Rust.ServerPort,
				"err", err,
			)
			a.socket = unreachableSocket{}
		} else {
			a.socket = client
		}
	}

	// ── 2. Entity directory ──────────────────────────────────────────────
	dir := entity.NewDirectory(cfg.Entities)
	slog.Info("entity directory loaded", "entities", dir.Len())

	// ── 3. HTTP handler ──────────────────────────────────────────────────
	api := httpapi.New(a.socket, dir,
		httpapi.ServerInfo{IP: cfg.Rust.ServerIP, Port: cfg.Rust.ServerPort},
		httpapi.WithMetrics(a.metrics),
	)

	mux := http.NewServeMux()
	api.Register(mux)
	health.New(health.SocketChecker("rustplus", a.socket.Connected)).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	a.handler = observe.Middleware(a.metrics)(mux)

	return a, nil
}

// Handler exposes the assembled HTTP handler. Tests serve it directly.
func (a *App) Handler() http.Handler { return a.handler }

// Run serves the HTTP API and blocks until ctx is cancelled or the
// listener fails. Shutdown is hard: listeners and connections are
// closed without draining, and in-flight requests are not waited for.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return srv.Close()
	})

	return g.Wait()
}

// Close releases the companion socket. Safe to call more than once.
func (a *App) Close() error {
	var err error
	a.stopOnce.Do(func() {
		err = a.socket.Close()
		slog.Info("companion socket closed")
	})
	return err
}

// ─── Socket hooks ────────────────────────────────────────────────────────────

func (a *App) onStateChange(s rustplus.State) {
	ctx := context.Background()
	switch s {
	case rustplus.StateConnected:
		if !a.sockUp.Swap(true) {
			a.metrics.RecordSocketState(ctx, true)
		}
		slog.Info("companion socket connected",
			"server_ip", a.cfg.Rust.ServerIP,
			"server_port", a.cfg.Rust.ServerPort,
		)
	case rustplus.StateDisconnected, rustplus.StateError:
		if a.sockUp.Swap(false) {
			a.metrics.RecordSocketState(ctx, false)
		}
		slog.Warn("companion socket down", "state", s)
	default:
		slog.Debug("companion socket state", "state", s)
	}
}

func (a *App) onBroadcast(raw json.RawMessage) {
	a.metrics.RecordBroadcast(context.Background())
	slog.Debug("server broadcast", "payload", string(raw))
}

// unreachableSocket stands in when the initial dial fails: every call
// answers as disconnected so the API degrades instead of crashing.
type unreachableSocket struct{}

func (unreachableSocket) Connected() bool { return false }

func (unreachableSocket) SetEntityValue(context.Context, int64, bool) (json.RawMessage, error) {
	return nil, rustplus.ErrNotConnected
}

func (unreachableSocket) GetEntityInfo(context.Context, int64) (json.RawMessage, error) {
	return nil, rustplus.ErrNotConnected
}

func (unreachableSocket) Close() error { return nil }
