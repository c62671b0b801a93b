package connection

import "encoding/json"

// FrameKind is the classification of an inbound frame.
type FrameKind int

const (
	// FrameOther is any frame with no latency meaning; it is ignored.
	FrameOther FrameKind = iota
	// FrameSubscribed is the server's confirmation of the login.
	FrameSubscribed
)

func (k FrameKind) String() string {
	switch k {
	case FrameSubscribed:
		return "subscribed"
	default:
		return "other"
	}
}

// Frame is a classified inbound frame.
type Frame struct {
	Kind FrameKind
	Type string // JSON "type" discriminator, empty if absent or not a string
}

// classifyText classifies a text frame by its "type" field.
// Invalid JSON returns a *DecodeError along with FrameOther.
func classifyText(data []byte) (Frame, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Frame{Kind: FrameOther}, &DecodeError{Err: err}
	}

	var typ string
	if raw, ok := fields["type"]; ok {
		// Non-string discriminators are treated as absent.
		_ = json.Unmarshal(raw, &typ)
	}

	if typ == "subscribed" {
		return Frame{Kind: FrameSubscribed, Type: typ}, nil
	}
	return Frame{Kind: FrameOther, Type: typ}, nil
}
