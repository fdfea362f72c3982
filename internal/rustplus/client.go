// Package rustplus is a client for the Rust game server's companion
// socket: one persistent websocket per process, multiplexing entity
// commands and info queries, plus unsolicited server broadcasts.
//
// The upstream protocol is callback-driven; this client re-expresses each
// request as a blocking call that takes a context and returns the reply
// payload or an error. Correlation is by sequence number (see frames.go).
// There is no reconnect, retry, or client-imposed timeout: a dead socket
// fails fast with [ErrNotConnected] and the process is expected to be
// restarted externally.
package rustplus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
)

// State is the lifecycle state of the companion socket.
type State string

const (
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateError        State = "error"
)

// Config carries the game server address and pairing credentials.
type Config struct {
	ServerIP    string
	ServerPort  int
	PlayerID    int64
	PlayerToken int64
	UseSSL      bool
}

// URL returns the websocket endpoint for the configured server.
func (c Config) URL() string {
	scheme := "ws"
	if c.UseSSL {
		scheme = "wss"
	}
	return scheme + "://" + net.JoinHostPort(c.ServerIP, strconv.Itoa(c.ServerPort))
}

// Option is a functional option for [Dial].
type Option func(*Client)

// WithOnStateChange registers a hook invoked on every lifecycle
// transition. The hook runs on the client's goroutines and must not block.
func WithOnStateChange(fn func(State)) Option {
	return func(c *Client) { c.onState = fn }
}

// WithOnBroadcast registers a hook for unsolicited server frames (entity
// changed, smart alarms). The raw payload is valid only for the duration
// of the call. Must not block.
func WithOnBroadcast(fn func(json.RawMessage)) Option {
	return func(c *Client) { c.onBroadcast = fn }
}

// Client is a companion-socket client. Safe for concurrent use; any
// number of requests may be in flight at once.
type Client struct {
	cfg  Config
	conn *websocket.Conn

	onState     func(State)
	onBroadcast func(json.RawMessage)

	seq       atomic.Uint32
	connected atomic.Bool

	// writeMu serialises outbound frames; coder/websocket allows one
	// concurrent writer.
	writeMu sync.Mutex

	// pendingMu guards pending. Entries are removed by whichever side
	// settles the call first (reply, caller context, or socket death).
	pendingMu sync.Mutex
	pending   map[uint32]chan callResult

	done      chan struct{}
	closeOnce sync.Once
}

// callResult settles one in-flight request.
type callResult struct {
	payload json.RawMessage
	err     error
}

// Dial connects to the companion socket and starts the read loop. The
// context governs only the dial; the connection itself lives until
// [Client.Close] or a socket error.
func Dial(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	c := &Client{
		cfg:     cfg,
		pending: make(map[uint32]chan callResult),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}

	c.notify(StateConnecting)

	conn, _, err := websocket.Dial(ctx, cfg.URL(), nil)
	if err != nil {
		c.notify(StateError)
		return nil, fmt.Errorf("rustplus: dial %s: %w", cfg.URL(), err)
	}
	// TC info payloads can be large; don't let the default read limit
	// kill the connection.
	conn.SetReadLimit(1 << 20)

	c.conn = conn
	c.connected.Store(true)
	c.notify(StateConnected)

	go c.readLoop()
	return c, nil
}

// Connected reports whether the socket is currently usable.
func (c *Client) Connected() bool { return c.connected.Load() }

// SetEntityValue switches the entity with the given id on or off and
// returns the raw acknowledgement payload.
func (c *Client) SetEntityValue(ctx context.Context, entityID int64, value bool) (json.RawMessage, error) {
	return c.call(ctx, requestFrame{
		EntityID:       entityID,
		SetEntityValue: &setEntityValue{Value: value},
	})
}

// GetEntityInfo fetches the raw info payload for the entity with the
// given id. The payload shape depends on the entity type; callers decode
// what they need and pass the rest through.
func (c *Client) GetEntityInfo(ctx context.Context, entityID int64) (json.RawMessage, error) {
	return c.call(ctx, requestFrame{
		EntityID:      entityID,
		GetEntityInfo: &struct{}{},
	})
}

// call stamps req with credentials and a fresh seq, sends it, and waits
// for the correlated reply. Once dispatched a request cannot be aborted
// on the server side; cancelling ctx only releases the waiting goroutine.
func (c *Client) call(ctx context.Context, req requestFrame) (json.RawMessage, error) {
	if !c.connected.Load() {
		return nil, ErrNotConnected
	}

	req.Seq = c.seq.Add(1)
	req.PlayerID = c.cfg.PlayerID
	req.PlayerToken = c.cfg.PlayerToken

	ch := make(chan callResult, 1)
	c.pendingMu.Lock()
	c.pending[req.Seq] = ch
	c.pendingMu.Unlock()
	defer c.forget(req.Seq)

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("rustplus: encode request: %w", err)
	}

	c.writeMu.Lock()
	err = c.conn.Write(ctx, websocket.MessageText, data)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("rustplus: write request: %w", err)
	}

	select {
	case res := <-ch:
		return res.payload, res.err
	case <-c.done:
		return nil, ErrNotConnected
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// forget drops the pending entry for seq, if still registered.
func (c *Client) forget(seq uint32) {
	c.pendingMu.Lock()
	delete(c.pending, seq)
	c.pendingMu.Unlock()
}

// readLoop receives frames until the socket dies, settling pending calls
// and dispatching broadcasts. On exit it fails every in-flight request.
func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.Read(context.Background())
		if err != nil {
			c.connected.Store(false)
			select {
			case <-c.done:
				// Local Close; not an error.
			default:
				slog.Warn("companion socket read failed", "err", err)
				c.notify(StateDisconnected)
			}
			c.failPending()
			return
		}

		frame, err := decodeServerFrame(data)
		if err != nil {
			slog.Debug("dropping undecodable frame", "err", err)
			continue
		}

		if frame.Broadcast != nil {
			if c.onBroadcast != nil {
				c.onBroadcast(frame.Broadcast)
			}
			continue
		}

		if frame.Response != nil {
			c.settle(frame)
		}
	}
}

// settle routes a response frame to the waiting caller. Replies whose
// caller already gave up are dropped.
func (c *Client) settle(frame serverFrame) {
	c.pendingMu.Lock()
	ch, ok := c.pending[frame.Seq]
	if ok {
		delete(c.pending, frame.Seq)
	}
	c.pendingMu.Unlock()

	if !ok {
		slog.Debug("dropping unmatched response", "seq", frame.Seq)
		return
	}

	res := callResult{payload: frame.Response}
	if rerr := responseError(frame.Response); rerr != nil {
		res = callResult{err: rerr}
	}
	ch <- res
}

// failPending settles every in-flight request with ErrNotConnected.
func (c *Client) failPending() {
	c.pendingMu.Lock()
	for seq, ch := range c.pending {
		delete(c.pending, seq)
		ch <- callResult{err: ErrNotConnected}
	}
	c.pendingMu.Unlock()
}

// notify invokes the state hook, if registered.
func (c *Client) notify(s State) {
	if c.onState != nil {
		c.onState(s)
	}
}

// Close tears the socket down. Idempotent; in-flight requests fail with
// ErrNotConnected.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.connected.Store(false)
		if c.conn != nil {
			c.conn.Close(websocket.StatusNormalClosure, "shutting down")
		}
		c.notify(StateDisconnected)
	})
	return nil
}
