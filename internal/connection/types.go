package connection

import (
	"fmt"
	"time"

	"github.com/rickgao/falcon/internal/feed"
)

// DefaultURL is the Polymarket CLOB realtime endpoint.
const DefaultURL = "wss://ws-subscriptions-clob.polymarket.com/realtime"

// TransportError is a connect, read or send failure. It always ends the session attempt.
type TransportError struct {
	Op  string // "dial", "send login", "read", "send pong"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Kind classifies the error for logging.
func (e *TransportError) Kind() string {
	return "transport"
}

// DecodeError is an inbound text frame that is not valid JSON. It is counted and ignored.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// State is the session lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAwaitingAuth
	StateStreaming
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAwaitingAuth:
		return "awaiting_auth"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Confirmation is the latency sample taken when the "subscribed" frame arrives.
type Confirmation struct {
	RoundTrip  time.Duration // Login send completion -> confirmation receipt
	Processing time.Duration // Confirmation receipt -> frame classified
}

// Heartbeat is the latency sample taken when a ping is answered.
type Heartbeat struct {
	Latency      time.Duration // Ping receipt -> pong send completion
	PayloadBytes int
	Reference    feed.Quote // Latest reference quote at reply time
	HasReference bool
}

// SessionStats are cumulative counters across all Run calls of a Session.
type SessionStats struct {
	Confirmations      int64
	HeartbeatsAnswered int64
	IgnoredFrames      int64
	MalformedFrames    int64
}

// SessionConfig configures a Session.
type SessionConfig struct {
	URL              string        // WebSocket URL (e.g., wss://ws-subscriptions-clob.polymarket.com/realtime)
	HandshakeTimeout time.Duration // TCP+TLS+WS handshake timeout
	WriteTimeout     time.Duration // Write deadline for login and pong frames
}

// DefaultSessionConfig returns sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		URL:              DefaultURL,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}
