package quaddle

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// TokenSource yields the current session token. The gateway never copies
// the token; it asks at identify time, so a login that replaces the token
// is always visible to the next (re)connection.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed-token TokenSource for gateways used standalone.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

type inboundFrame struct {
	data []byte
	err  error
}

// Gateway is the persistent push-stream connection. Exactly one consumer
// polls Next at a time; the produced sequence preserves arrival order and
// is finite once the connection reaches StateClosed. A closed gateway is
// not restartable; create a new one to resume.
type Gateway struct {
	cfg    Config
	tokens TokenSource
	dialer Dialer
	clock  Clock
	logger Logger

	mu      sync.Mutex
	state   ConnectionState
	reason  CloseReason
	conn    FrameConn
	session string

	frames     chan inboundFrame
	pumpCancel context.CancelFunc
	keepalive  <-chan time.Time
	attempts   int
	lastErr    error

	closed    chan struct{}
	closeOnce sync.Once
}

// NewGateway creates a gateway bound to a token source. No transport is
// opened until the first Next call.
func NewGateway(cfg Config, tokens TokenSource) *Gateway {
	return &Gateway{
		cfg:    cfg,
		tokens: tokens,
		dialer: newWSDialer(cfg),
		clock:  SystemClock(),
		logger: noopLogger{},
		closed: make(chan struct{}),
	}
}

// SetDialer overrides the transport capability. Call before the first Next.
func (g *Gateway) SetDialer(d Dialer) {
	if d != nil {
		g.dialer = d
	}
}

// SetClock overrides the timer capability. Call before the first Next.
func (g *Gateway) SetClock(c Clock) {
	if c != nil {
		g.clock = c
	}
}

// SetLogger overrides the logger (optional).
func (g *Gateway) SetLogger(l Logger) {
	if l != nil {
		g.logger = l
	}
}

// State returns the current connection state.
func (g *Gateway) State() ConnectionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// CloseReason reports why the connection closed, or CloseNone.
func (g *Gateway) CloseReason() CloseReason {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reason
}

// SessionID returns the session identifier from the last ready ack, or ""
// if the gateway has not authenticated yet.
func (g *Gateway) SessionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// Next returns the next gateway event in arrival order. On first use it
// opens the transport, identifies, and returns the ReadyEvent; after a
// transport loss it runs the bounded reconnect sequence and returns a fresh
// ReadyEvent at the resumption point. A returned error is terminal for this
// gateway except for ctx cancellation, which leaves the state machine
// where it was.
func (g *Gateway) Next(ctx context.Context) (GatewayEvent, error) {
	for {
		switch g.State() {
		case StateClosed:
			return nil, g.closeErr()
		case StateDisconnected, StateReconnecting:
			ev, err := g.establish(ctx)
			if err != nil {
				return nil, err
			}
			return ev, nil
		case StateConnected:
			ev, err := g.await(ctx)
			if err != nil {
				return nil, err
			}
			if ev != nil {
				return ev, nil
			}
			// Frame skipped or transport lost; run the machine again.
		default:
			return nil, NewError(KindUnknown, "gateway in unexpected state "+g.State().String())
		}
	}
}

// Subscribe asks the server to push events for a channel. The gateway must
// be connected.
func (g *Gateway) Subscribe(ctx context.Context, channel ChannelID) error {
	return g.sendCommand(ctx, SubscribeCommand(channel))
}

// Close terminates the gateway: the event sequence ends, any reconnection
// activity stops, and the transport is released before Close returns.
// Safe to call from any goroutine and more than once.
func (g *Gateway) Close() error {
	g.closeOnce.Do(func() {
		conn, cancel := g.shutdown(CloseRequested)
		if cancel != nil {
			cancel()
		}
		if conn != nil {
			_ = conn.Close()
		}
		close(g.closed)
	})
	return nil
}

// shutdown moves the gateway to StateClosed and detaches the live conn and
// pump. The first reason wins. Callers close the returned conn.
func (g *Gateway) shutdown(reason CloseReason) (FrameConn, context.CancelFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateClosed {
		g.state = StateClosed
		g.reason = reason
	}
	conn := g.conn
	g.conn = nil
	cancel := g.pumpCancel
	g.pumpCancel = nil
	g.frames = nil
	g.keepalive = nil
	return conn, cancel
}

func (g *Gateway) terminate(reason CloseReason) {
	conn, cancel := g.shutdown(reason)
	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

func (g *Gateway) closeErr() error {
	switch g.CloseReason() {
	case CloseAuthFailed:
		return NewError(KindClosed, "gateway closed: authentication failed")
	case CloseExhausted:
		return NewError(KindClosed, "gateway closed: reconnect attempts exhausted")
	case CloseFatalError:
		return NewError(KindClosed, "gateway closed: fatal protocol error")
	default:
		return NewError(KindClosed, "gateway closed")
	}
}

// establish runs Disconnected/Reconnecting -> Connected, waiting out the
// backoff schedule between attempts. Returns the ReadyEvent on success.
func (g *Gateway) establish(ctx context.Context) (GatewayEvent, error) {
	for {
		select {
		case <-g.closed:
			return nil, g.closeErr()
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if g.State() == StateReconnecting {
			if g.attempts >= g.cfg.ReconnectAttempts {
				err := WrapError(KindTransport, "gateway connection lost, reconnect attempts exhausted", g.lastErr)
				g.terminate(CloseExhausted)
				return nil, err
			}
			delay := backoffDelay(g.cfg, g.attempts)
			g.logger.Info("gateway reconnecting", map[string]any{
				"attempt": g.attempts + 1,
				"backoff": delay.String(),
			})
			select {
			case <-g.clock.After(delay):
			case <-ctx.Done():
				return nil, WrapError(KindTransport, "reconnect wait canceled", ctx.Err())
			case <-g.closed:
				return nil, g.closeErr()
			}
			g.attempts++
		}

		ev, err := g.connect(ctx)
		if err == nil {
			g.attempts = 0
			return ev, nil
		}
		if g.State() == StateClosed {
			// Fatal: auth rejection or malformed identify ack.
			return nil, err
		}
		g.lastErr = err
		if g.cfg.ReconnectAttempts <= 0 {
			g.terminate(CloseExhausted)
			return nil, err
		}
		g.setState(StateReconnecting)
	}
}

// connect opens the transport and performs the identify exchange. The
// returned event is the ready ack.
func (g *Gateway) connect(ctx context.Context) (GatewayEvent, error) {
	u, err := gatewayURL(g.cfg.URL)
	if err != nil {
		g.terminate(CloseFatalError)
		return nil, err
	}

	hctx := ctx
	if g.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, g.cfg.HandshakeTimeout)
		defer cancel()
	}

	g.setState(StateConnecting)
	conn, err := g.dialer.Dial(hctx, u)
	if err != nil {
		return nil, WrapError(KindTransport, "gateway dial", err)
	}

	g.mu.Lock()
	if g.state == StateClosed {
		g.mu.Unlock()
		_ = conn.Close()
		return nil, g.closeErr()
	}
	g.conn = conn
	g.state = StateAuthenticating
	g.mu.Unlock()

	buf, err := EncodeCommand(IdentifyCommand(g.tokens.Token()))
	if err != nil {
		g.dropConn()
		return nil, err
	}
	if err := conn.WriteFrame(hctx, buf); err != nil {
		g.dropConn()
		return nil, WrapError(KindTransport, "send identify", err)
	}

	raw, err := conn.ReadFrame(hctx)
	if err != nil {
		g.dropConn()
		return nil, WrapError(KindTransport, "await identify ack", err)
	}

	ev, err := DecodeEvent(raw)
	if err != nil {
		// A malformed frame during identification is fatal.
		g.terminate(CloseFatalError)
		return nil, WrapError(KindProtocol, "malformed identify ack", err)
	}

	switch e := ev.(type) {
	case ReadyEvent:
		g.mu.Lock()
		g.session = e.SessionID
		g.state = StateConnected
		g.mu.Unlock()
		g.startPump(conn)
		g.armKeepalive()
		g.logger.Debug("gateway ready", map[string]any{"session_id": e.SessionID})
		return e, nil
	case ErrorEvent:
		g.terminate(CloseAuthFailed)
		return nil, NewError(KindAuth, "identify rejected: "+e.Reason)
	default:
		g.terminate(CloseFatalError)
		return nil, NewError(KindProtocol, "unexpected frame before ready")
	}
}

// await blocks for the next inbound frame, the heartbeat deadline, or the
// keepalive tick. Returns (nil, nil) when the machine must run again:
// a skipped frame or a transport loss that moved us to Reconnecting.
func (g *Gateway) await(ctx context.Context) (GatewayEvent, error) {
	var heartbeat <-chan time.Time
	if g.cfg.HeartbeatTimeout > 0 {
		heartbeat = g.clock.After(g.cfg.HeartbeatTimeout)
	}

	g.mu.Lock()
	frames := g.frames
	keepalive := g.keepalive
	g.mu.Unlock()
	if frames == nil {
		return nil, nil
	}

	for {
		select {
		case <-g.closed:
			return nil, g.closeErr()
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-heartbeat:
			g.logger.Warn("heartbeat deadline missed", map[string]any{
				"timeout": g.cfg.HeartbeatTimeout.String(),
			})
			g.lost(NewError(KindTransport, "heartbeat deadline missed"))
			return nil, nil
		case <-keepalive:
			if err := g.sendCommand(ctx, PingCommand()); err != nil {
				g.lost(err)
				return nil, nil
			}
			keepalive = g.armKeepalive()
		case fr := <-frames:
			if fr.err != nil {
				if g.State() == StateClosed {
					return nil, g.closeErr()
				}
				if !expectedDisconnect(fr.err) {
					g.logger.Warn("gateway read failed", map[string]any{"error": fr.err.Error()})
				}
				g.lost(fr.err)
				return nil, nil
			}
			ev, err := DecodeEvent(fr.data)
			if err != nil {
				// Post-identify parse failures skip the frame only.
				g.logger.Warn("skipping malformed frame", map[string]any{"error": err.Error()})
				return nil, nil
			}
			if e, ok := ev.(ErrorEvent); ok && e.Fatal {
				g.terminate(CloseFatalError)
				return e, nil
			}
			return ev, nil
		}
	}
}

// lost tears down the live conn and moves to Reconnecting (unless closed).
func (g *Gateway) lost(err error) {
	g.lastErr = err
	g.mu.Lock()
	conn := g.conn
	g.conn = nil
	cancel := g.pumpCancel
	g.pumpCancel = nil
	g.frames = nil
	g.keepalive = nil
	if g.state != StateClosed {
		g.state = StateReconnecting
	}
	g.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

// dropConn releases a half-established conn without deciding the next state.
func (g *Gateway) dropConn() {
	g.mu.Lock()
	conn := g.conn
	g.conn = nil
	g.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (g *Gateway) setState(s ConnectionState) {
	g.mu.Lock()
	if g.state != StateClosed {
		g.state = s
	}
	g.mu.Unlock()
}

// startPump feeds inbound frames into an unbuffered channel so the single
// consumer sees them in exact arrival order.
func (g *Gateway) startPump(conn FrameConn) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan inboundFrame)
	g.mu.Lock()
	g.pumpCancel = cancel
	g.frames = ch
	g.mu.Unlock()
	go func() {
		for {
			data, err := conn.ReadFrame(ctx)
			if err != nil {
				select {
				case ch <- inboundFrame{err: err}:
				case <-ctx.Done():
				}
				return
			}
			select {
			case ch <- inboundFrame{data: data}:
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (g *Gateway) armKeepalive() <-chan time.Time {
	if g.cfg.KeepaliveInterval <= 0 {
		return nil
	}
	ch := g.clock.After(g.cfg.KeepaliveInterval)
	g.mu.Lock()
	g.keepalive = ch
	g.mu.Unlock()
	return ch
}

func (g *Gateway) sendCommand(ctx context.Context, cmd Command) error {
	g.mu.Lock()
	conn := g.conn
	state := g.state
	g.mu.Unlock()
	if state != StateConnected || conn == nil {
		return NewError(KindTransport, "gateway not connected")
	}
	buf, err := EncodeCommand(cmd)
	if err != nil {
		return err
	}
	if err := conn.WriteFrame(ctx, buf); err != nil {
		return WrapError(KindTransport, "send "+cmd.Op, err)
	}
	return nil
}

func backoffDelay(cfg Config, attempt int) time.Duration {
	d := cfg.ReconnectBackoff
	if d <= 0 {
		return 0
	}
	for i := 0; i < attempt && i < 30; i++ {
		d *= 2
		if cfg.ReconnectBackoffMax > 0 && d >= cfg.ReconnectBackoffMax {
			return cfg.ReconnectBackoffMax
		}
	}
	if cfg.ReconnectBackoffMax > 0 && d > cfg.ReconnectBackoffMax {
		d = cfg.ReconnectBackoffMax
	}
	return d
}

// expectedDisconnect reports whether a read error is a routine close rather
// than a failure worth logging loudly.
func expectedDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
