package message

import (
	"encoding/json"
	"fmt"
	"time"
)

// ValidationError names the first field that made a message undispatchable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

// Note is the short form used in archive file names, e.g. "invalid-payload.text".
func (e *ValidationError) Note() string {
	return "invalid-" + e.Field
}

// Validate extracts the typed Message, failing on the first missing or
// invalid required field. from, to, payload.text and trace.id must be
// non-empty strings.
func Validate(d *Document) (Message, error) {
	var msg Message
	required := []struct {
		field string
		path  []string
		dst   *string
	}{
		{"from", []string{"from"}, &msg.From},
		{"to", []string{"to"}, &msg.To},
		{"payload.text", []string{"payload", "text"}, &msg.Text},
		{"trace.id", []string{"trace", "id"}, &msg.TraceID},
	}

	for _, r := range required {
		v := d.lookup(r.path...)
		if v == nil {
			return Message{}, &ValidationError{Field: r.field, Reason: "missing"}
		}
		s, ok := v.(string)
		if !ok {
			return Message{}, &ValidationError{Field: r.field, Reason: "not a string"}
		}
		if s == "" {
			return Message{}, &ValidationError{Field: r.field, Reason: "empty"}
		}
		*r.dst = s
	}

	msg.Intent = DefaultIntent
	if v := d.lookup("intent"); v != nil {
		s, ok := v.(string)
		if !ok {
			return Message{}, &ValidationError{Field: "intent", Reason: "not a string"}
		}
		if s != "" {
			msg.Intent = s
		}
	}

	if v := d.lookup("nexus", "response_timeout_sec"); v != nil {
		secs, err := number(v)
		if err != nil || secs < 0 {
			return Message{}, &ValidationError{Field: "nexus.response_timeout_sec", Reason: "not a non-negative number"}
		}
		msg.ResponseTimeout = time.Duration(secs * float64(time.Second))
	}

	return msg, nil
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Float64()
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
