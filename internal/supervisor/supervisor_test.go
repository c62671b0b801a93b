package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rickgao/falcon/internal/auth"
	"github.com/rickgao/falcon/internal/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sleepRecorder captures requested delays without sleeping.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func (r *sleepRecorder) get() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

type kindError struct{}

func (kindError) Error() string { return "boom" }
func (kindError) Kind() string  { return "test" }

func TestSupervisor_RetriesAfterFailures(t *testing.T) {
	t.Parallel()
	calls := 0
	runner := RunnerFunc(func(ctx context.Context) error {
		calls++
		return errors.New("connection refused")
	})

	rec := &sleepRecorder{}
	policy := DefaultRestartPolicy()
	policy.MaxAttempts = 3

	err := New(runner, policy, nil, WithSleep(rec.sleep)).Run(context.Background())

	require.ErrorIs(t, err, ErrMaxAttempts)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{DefaultDelay, DefaultDelay}, rec.get())
}

func TestSupervisor_DelaysAfterCleanAndFailedAttempts(t *testing.T) {
	t.Parallel()
	n := 0
	runner := RunnerFunc(func(ctx context.Context) error {
		n++
		if n%2 == 0 {
			return kindError{}
		}
		return nil
	})

	rec := &sleepRecorder{}
	policy := DefaultRestartPolicy()
	policy.MaxAttempts = 4

	s := New(runner, policy, nil, WithSleep(rec.sleep))
	require.ErrorIs(t, s.Run(context.Background()), ErrMaxAttempts)

	assert.Equal(t, []time.Duration{DefaultDelay, DefaultDelay, DefaultDelay}, rec.get())
	assert.Equal(t, Stats{Attempts: 4, Failures: 2, CleanExits: 2}, s.Stats())
}

func TestSupervisor_ContextCancelledDuringSleep(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())

	runner := RunnerFunc(func(context.Context) error { return errors.New("fail") })
	sleep := func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	err := New(runner, DefaultRestartPolicy(), nil, WithSleep(sleep)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSupervisor_ContextCancelledDuringAttempt(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())

	runner := RunnerFunc(func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})

	s := New(runner, DefaultRestartPolicy(), nil)
	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
	assert.Equal(t, int64(0), s.Stats().Failures, "cancellation is not an attempt failure")
}

func TestSupervisor_ExponentialBackoff(t *testing.T) {
	t.Parallel()
	results := []error{
		errors.New("1"), errors.New("2"), errors.New("3"), errors.New("4"), errors.New("5"),
		nil, errors.New("7"), errors.New("8"),
	}
	i := 0
	runner := RunnerFunc(func(context.Context) error {
		err := results[i]
		i++
		return err
	})

	rec := &sleepRecorder{}
	policy := RestartPolicy{
		Delay:       100 * time.Millisecond,
		MaxDelay:    time.Second,
		Backoff:     BackoffExponential,
		MaxAttempts: len(results),
	}

	require.ErrorIs(t, New(runner, policy, nil, WithSleep(rec.sleep)).Run(context.Background()), ErrMaxAttempts)

	ms := time.Millisecond
	want := []time.Duration{
		100 * ms, 200 * ms, 400 * ms, 800 * ms, 1000 * ms,
		100 * ms, // reset after the clean attempt
		200 * ms,
	}
	assert.Equal(t, want, rec.get())
}

func TestSupervisor_RealSleep(t *testing.T) {
	t.Parallel()
	policy := RestartPolicy{Delay: 20 * time.Millisecond, MaxAttempts: 2}
	runner := RunnerFunc(func(context.Context) error { return nil })

	start := time.Now()
	require.ErrorIs(t, New(runner, policy, nil).Run(context.Background()), ErrMaxAttempts)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestErrorKind(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "other", errorKind(errors.New("x")))
	assert.Equal(t, "test", errorKind(kindError{}))
	assert.Equal(t, "transport", errorKind(&connection.TransportError{Op: "read", Err: errors.New("eof")}))
}

func TestRestartPolicy_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		policy  RestartPolicy
		wantErr string
	}{
		{name: "default", policy: DefaultRestartPolicy()},
		{name: "empty backoff", policy: RestartPolicy{Delay: time.Second}},
		{name: "negative delay", policy: RestartPolicy{Delay: -1}, wantErr: "delay must be >= 0, got -1ns"},
		{name: "negative attempts", policy: RestartPolicy{MaxAttempts: -1}, wantErr: "max_attempts must be >= 0, got -1"},
		{name: "unknown backoff", policy: RestartPolicy{Backoff: "fibonacci"}, wantErr: `unknown backoff "fibonacci"`},
		{
			name:    "exponential cap below delay",
			policy:  RestartPolicy{Delay: time.Second, MaxDelay: time.Millisecond, Backoff: BackoffExponential},
			wantErr: "max_delay (1ms) cannot be less than delay (1s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

// Every attempt against a flaky endpoint signs a fresh login.
func TestSupervisor_SessionAttemptIsolation(t *testing.T) {
	timestamps := make(chan int64, 8)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req auth.LoginRequest
		if json.Unmarshal(data, &req) == nil {
			timestamps <- req.Timestamp
		}
		conn.UnderlyingConn().Close()
	}))
	defer server.Close()

	cfg := connection.DefaultSessionConfig()
	cfg.URL = "ws" + strings.TrimPrefix(server.URL, "http")
	creds := auth.Credentials{APIKey: "k", Secret: "s", Passphrase: "p"}
	session := connection.NewSession(cfg, creds, nil)

	policy := RestartPolicy{Delay: 5 * time.Millisecond, MaxAttempts: 2}
	s := New(session, policy, nil)

	require.ErrorIs(t, s.Run(context.Background()), ErrMaxAttempts)
	assert.Equal(t, Stats{Attempts: 2, Failures: 2}, s.Stats())

	require.Len(t, timestamps, 2)
	first, second := <-timestamps, <-timestamps
	assert.NotEqual(t, first, second, "each attempt must sign a fresh timestamp")
}
