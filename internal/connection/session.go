package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rickgao/falcon/internal/auth"
)

// Option configures a Session.
type Option func(*Session)

// WithRecorder overrides the default LogRecorder.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithReference attaches the reference quote read on every heartbeat.
func WithReference(src ReferenceSource) Option {
	return func(s *Session) {
		s.reference = src
	}
}

// WithDialer overrides the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Session) {
		if d != nil {
			s.dialer = d
		}
	}
}

// Session runs authenticated, latency-instrumented exchange sessions.
// Each Run call owns exactly one connection; a Session must not be Run concurrently.
type Session struct {
	cfg       SessionConfig
	creds     auth.Credentials
	logger    *slog.Logger
	recorder  Recorder
	reference ReferenceSource
	dialer    *websocket.Dialer

	state atomic.Int32

	confirmations atomic.Int64
	heartbeats    atomic.Int64
	ignored       atomic.Int64
	malformed     atomic.Int64
}

// NewSession creates a Session. Credentials are captured once and never mutated.
func NewSession(cfg SessionConfig, creds auth.Credentials, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		cfg:      cfg,
		creds:    creds,
		logger:   logger,
		recorder: NewLogRecorder(logger),
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Stats returns cumulative frame counters.
func (s *Session) Stats() SessionStats {
	return SessionStats{
		Confirmations:      s.confirmations.Load(),
		HeartbeatsAnswered: s.heartbeats.Load(),
		IgnoredFrames:      s.ignored.Load(),
		MalformedFrames:    s.malformed.Load(),
	}
}

// Run performs one session: connect, log in, then service frames until the peer
// closes the stream (nil), an I/O step fails (*TransportError) or ctx is done.
func (s *Session) Run(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			s.setState(StateErrored)
		} else {
			s.setState(StateClosed)
		}
	}()

	s.setState(StateConnecting)

	dialStart := time.Now()
	conn, _, err := s.dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TransportError{Op: "dial", Err: err}
	}
	defer conn.Close()
	s.recorder.HandshakeCompleted(time.Since(dialStart))

	// Unblock ReadMessage when the caller gives up on this attempt.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	// Ping handlers run inside ReadMessage, so each pong is written before the
	// next frame is returned.
	conn.SetPingHandler(func(appData string) error {
		return s.answerPing(conn, appData)
	})

	loginSentAt, err := s.sendLogin(conn)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	s.setState(StateAwaitingAuth)

	for {
		messageType, data, err := conn.ReadMessage()
		receivedAt := time.Now()
		if err != nil {
			return s.readError(ctx, err)
		}
		s.handleMessage(messageType, data, receivedAt, loginSentAt)
	}
}

// sendLogin signs and writes a fresh login frame, returning the instant the write completed.
func (s *Session) sendLogin(conn *websocket.Conn) (time.Time, error) {
	req := auth.NewLoginRequest(s.creds, time.Now())

	data, err := json.Marshal(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("marshal login: %w", err)
	}

	conn.SetWriteDeadline(s.writeDeadline())
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return time.Time{}, &TransportError{Op: "send login", Err: err}
	}
	sentAt := time.Now()

	s.recorder.LoginSent(req.Timestamp)
	return sentAt, nil
}

// answerPing echoes the ping payload and records the reply latency.
func (s *Session) answerPing(conn *websocket.Conn, appData string) error {
	receivedAt := time.Now()

	if err := conn.WriteControl(websocket.PongMessage, []byte(appData), s.writeDeadline()); err != nil {
		return &TransportError{Op: "send pong", Err: err}
	}

	hb := Heartbeat{
		Latency:      time.Since(receivedAt),
		PayloadBytes: len(appData),
	}
	if s.reference != nil {
		hb.Reference, hb.HasReference = s.reference.Load()
	}

	s.heartbeats.Add(1)
	s.recorder.HeartbeatAnswered(hb)
	return nil
}

func (s *Session) handleMessage(messageType int, data []byte, receivedAt, loginSentAt time.Time) {
	if messageType != websocket.TextMessage {
		s.ignored.Add(1)
		return
	}

	frame, err := classifyText(data)
	if err != nil {
		s.malformed.Add(1)
		s.logger.Debug("ignoring malformed frame", "error", err, "bytes", len(data))
		return
	}

	switch frame.Kind {
	case FrameSubscribed:
		processing := time.Since(receivedAt)
		s.confirmations.Add(1)
		s.setState(StateStreaming)
		s.recorder.LoginConfirmed(Confirmation{
			RoundTrip:  receivedAt.Sub(loginSentAt),
			Processing: processing,
		})
	default:
		s.ignored.Add(1)
	}
}

// readError maps a ReadMessage failure to the Run result.
func (s *Session) readError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te
	}

	// Any close frame from the peer ends the stream cleanly, whatever its code.
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		s.logger.Info("stream closed by peer", "code", ce.Code, "reason", ce.Text)
		return nil
	}

	return &TransportError{Op: "read", Err: err}
}

func (s *Session) writeDeadline() time.Time {
	if s.cfg.WriteTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(s.cfg.WriteTimeout)
}

func (s *Session) setState(next State) {
	prev := State(s.state.Swap(int32(next)))
	if prev != next {
		s.logger.Debug("session state", "from", prev.String(), "to", next.String())
	}
}
