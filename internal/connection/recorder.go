package connection

import (
	"log/slog"
	"time"

	"github.com/rickgao/falcon/internal/feed"
)

// Recorder receives the observability events of a session.
type Recorder interface {
	HandshakeCompleted(d time.Duration)
	LoginSent(timestampMs int64)
	LoginConfirmed(c Confirmation)
	HeartbeatAnswered(h Heartbeat)
}

// ReferenceSource provides the latest reference quote. *feed.Latest satisfies it.
type ReferenceSource interface {
	Load() (feed.Quote, bool)
}

// LogRecorder emits every event as a structured log line with microsecond latencies.
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder creates a recorder writing to logger.
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) HandshakeCompleted(d time.Duration) {
	r.logger.Info("TCP+TLS handshake complete", "handshake_us", d.Microseconds())
}

func (r *LogRecorder) LoginSent(timestampMs int64) {
	r.logger.Info("login sent", "timestamp", timestampMs)
}

func (r *LogRecorder) LoginConfirmed(c Confirmation) {
	r.logger.Info("login confirmed",
		"rtt_us", c.RoundTrip.Microseconds(),
		"processing_us", c.Processing.Microseconds(),
	)
}

func (r *LogRecorder) HeartbeatAnswered(h Heartbeat) {
	attrs := []any{
		"ping_latency_us", h.Latency.Microseconds(),
		"payload_bytes", h.PayloadBytes,
	}
	if h.HasReference {
		attrs = append(attrs,
			"ref_price", h.Reference.Price.String(),
			"ref_age_ms", h.Reference.Age(time.Now()).Milliseconds(),
		)
	}
	r.logger.Info("pong sent", attrs...)
}
