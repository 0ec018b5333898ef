package quaddle

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"

	"github.com/quaddle/quaddle-sdk-go/quaddle/internal"
)

// FrameConn is one open persistent stream. The gateway reads and writes
// discrete frames through it; implementations must support one concurrent
// reader and writers from other goroutines.
type FrameConn interface {
	ReadFrame(ctx context.Context) ([]byte, error)
	WriteFrame(ctx context.Context, data []byte) error
	Close() error
}

// Dialer opens the persistent stream. Injected so hosts can supply their
// own socket primitive; the default uses a websocket.
type Dialer interface {
	Dial(ctx context.Context, url string) (FrameConn, error)
}

// Clock is the timer source for heartbeat deadlines, keepalives and
// reconnection backoff. Injected so hosts control all waiting.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock returns the Clock backed by the time package.
func SystemClock() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type wsDialer struct {
	userAgent    string
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func newWSDialer(cfg Config) Dialer {
	return wsDialer{
		userAgent:    cfg.UserAgent,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
	}
}

func (d wsDialer) Dial(ctx context.Context, u string) (FrameConn, error) {
	var opts *websocket.DialOptions
	if d.userAgent != "" {
		opts = &websocket.DialOptions{
			HTTPHeader: http.Header{"User-Agent": []string{d.userAgent}},
		}
	}
	ws, _, err := websocket.Dial(ctx, u, opts)
	if err != nil {
		return nil, err
	}
	return internal.NewConn(ws, d.readTimeout, d.writeTimeout), nil
}

// gatewayURL derives the gateway endpoint from the base server URL.
func gatewayURL(base string) (string, error) {
	if base == "" {
		return "", NewError(KindValidation, "empty server URL")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", WrapError(KindValidation, "invalid server URL", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", NewError(KindValidation, "unsupported URL scheme "+u.Scheme)
	}
	u.Path, err = url.JoinPath(u.Path, "app")
	if err != nil {
		return "", WrapError(KindValidation, "invalid server URL path", err)
	}
	return u.String(), nil
}
