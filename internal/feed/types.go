package feed

import (
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBufferSize is the capacity of the producer -> drain channel.
const DefaultBufferSize = 16

// Quote is a reference price observation.
type Quote struct {
	Price      decimal.Decimal // Mid price ((bid+ask)/2)
	Bid        decimal.Decimal
	Ask        decimal.Decimal
	Source     string    // e.g. "coinbase:BTC-USD"
	ReceivedAt time.Time // Local timestamp when the frame was read
}

// Age returns how old the quote is relative to now.
func (q Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.ReceivedAt)
}

// NewChannel returns a bounded quote channel of the given capacity.
func NewChannel(size int) chan Quote {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return make(chan Quote, size)
}

// Latest holds the most recently received quote. It is safe for one writer and
// any number of readers without locking.
type Latest struct {
	quote   atomic.Pointer[Quote]
	updates atomic.Int64
}

// Store replaces the current quote.
func (l *Latest) Store(q Quote) {
	l.quote.Store(&q)
	l.updates.Add(1)
}

// Load returns the current quote, or false if none has been stored.
func (l *Latest) Load() (Quote, bool) {
	q := l.quote.Load()
	if q == nil {
		return Quote{}, false
	}
	return *q, true
}

// Updates returns the number of quotes stored so far.
func (l *Latest) Updates() int64 {
	return l.updates.Load()
}
