package quaddle

// ConnectionState is the current phase of a gateway connection. It is
// mutated only by the connection's own state machine.
type ConnectionState int

const (
	// StateDisconnected means no transport has been opened yet.
	StateDisconnected ConnectionState = iota

	// StateConnecting means the transport is being established.
	StateConnecting

	// StateAuthenticating means identify was sent and the ack is pending.
	StateAuthenticating

	// StateConnected means events are flowing.
	StateConnected

	// StateReconnecting means the transport was lost and a bounded retry
	// sequence is in progress.
	StateReconnecting

	// StateClosed is terminal; see CloseReason.
	StateClosed
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CloseReason records why a gateway connection reached StateClosed.
type CloseReason int

const (
	// CloseNone: the connection is not closed.
	CloseNone CloseReason = iota

	// CloseRequested: the owner called Close.
	CloseRequested

	// CloseAuthFailed: the server rejected identification.
	CloseAuthFailed

	// CloseExhausted: the reconnect attempt budget ran out.
	CloseExhausted

	// CloseFatalError: a fatal protocol error ended the connection.
	CloseFatalError
)

// String returns the string representation of a CloseReason.
func (r CloseReason) String() string {
	switch r {
	case CloseNone:
		return "none"
	case CloseRequested:
		return "requested"
	case CloseAuthFailed:
		return "auth_failed"
	case CloseExhausted:
		return "exhausted"
	case CloseFatalError:
		return "fatal_error"
	default:
		return "unknown"
	}
}
