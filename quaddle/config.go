package quaddle

import "time"

// Config controls how the SDK connects. Zero-valued timeouts disable the
// corresponding behavior.
type Config struct {
	// URL is the base server URL, e.g. "http://localhost:8080". The
	// gateway endpoint is derived from it ({URL}/app, ws scheme).
	URL string

	// UserAgent is sent on every request and on the gateway handshake.
	UserAgent string

	// HandshakeTimeout bounds the gateway dial plus the identify exchange.
	HandshakeTimeout time.Duration

	// RequestTimeout bounds each one-shot command/response exchange.
	RequestTimeout time.Duration

	// ReadTimeout bounds each single gateway frame read. Leave 0 for chat
	// workloads; silence policing belongs to HeartbeatTimeout.
	ReadTimeout time.Duration

	// WriteTimeout bounds each gateway frame write.
	WriteTimeout time.Duration

	// HeartbeatTimeout is the longest the connection may stay silent
	// before it is treated as lost and reconnection begins. 0 disables.
	HeartbeatTimeout time.Duration

	// KeepaliveInterval makes the client send ping frames at this
	// interval. 0 disables; the protocol does not require them.
	KeepaliveInterval time.Duration

	// ReconnectAttempts bounds the automatic reconnection sequence after
	// a transport loss. 0 disables automatic reconnection entirely.
	ReconnectAttempts int

	// ReconnectBackoff is the delay before the first reconnect attempt;
	// it doubles per attempt up to ReconnectBackoffMax.
	ReconnectBackoff time.Duration

	// ReconnectBackoffMax caps the growing backoff delay.
	ReconnectBackoffMax time.Duration
}

// DefaultConfig returns sensible defaults. Set URL before use.
func DefaultConfig() Config {
	return Config{
		UserAgent:           "quaddle-sdk-go",
		HandshakeTimeout:    10 * time.Second,
		RequestTimeout:      30 * time.Second,
		WriteTimeout:        10 * time.Second,
		ReconnectAttempts:   5,
		ReconnectBackoff:    time.Second,
		ReconnectBackoffMax: 30 * time.Second,
	}
}
