package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyText(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantKind  FrameKind
		wantType  string
		wantError bool
	}{
		{name: "subscribed", data: `{"type":"subscribed"}`, wantKind: FrameSubscribed, wantType: "subscribed"},
		{name: "subscribed with payload", data: `{"type":"subscribed","channel":"user","markets":[]}`, wantKind: FrameSubscribed, wantType: "subscribed"},
		{name: "other type", data: `{"type":"book"}`, wantKind: FrameOther, wantType: "book"},
		{name: "missing type", data: `{"event":"subscribed"}`, wantKind: FrameOther},
		{name: "non-string type", data: `{"type":42}`, wantKind: FrameOther},
		{name: "case sensitive key", data: `{"Type":"subscribed"}`, wantKind: FrameOther},
		{name: "invalid json", data: `{"type":"subscribed"`, wantKind: FrameOther, wantError: true},
		{name: "json array", data: `[{"type":"subscribed"}]`, wantKind: FrameOther, wantError: true},
		{name: "empty", data: ``, wantKind: FrameOther, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := classifyText([]byte(tt.data))

			if tt.wantError {
				var de *DecodeError
				require.ErrorAs(t, err, &de)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantKind, frame.Kind)
			assert.Equal(t, tt.wantType, frame.Type)
		})
	}
}

func TestFrameKindString(t *testing.T) {
	assert.Equal(t, "subscribed", FrameSubscribed.String())
	assert.Equal(t, "other", FrameOther.String())
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateAwaitingAuth, "awaiting_auth"},
		{StateStreaming, "streaming"},
		{StateClosed, "closed"},
		{StateErrored, "errored"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String(), "State(%d)", int32(tt.state))
	}
}

func TestDefaultSessionConfig(t *testing.T) {
	cfg := DefaultSessionConfig()
	assert.Equal(t, DefaultURL, cfg.URL)
	assert.Positive(t, cfg.HandshakeTimeout)
	assert.Positive(t, cfg.WriteTimeout)
}
