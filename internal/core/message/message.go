// Package message defines the relay's unit of work and its on-disk JSON form.
//
// A task file is decoded into a Document, which keeps every field the producer
// wrote so the archived result can carry them forward untouched. Validate
// extracts the typed Message the relay actually works with.
package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// ShutdownPayload is the control payload that stops the daemon (any case).
const ShutdownPayload = "NEXUS-END"

// DefaultIntent is assumed when a producer omits the intent tag
const DefaultIntent = "chat"

// Message is the validated, typed view of a task file.
type Message struct {
	From    string
	To      string
	Intent  string
	Text    string
	TraceID string
	// ResponseTimeout is the per-message capture timeout; zero means use the default
	ResponseTimeout time.Duration
}

// Received is the reply annotation written back onto a processed task.
type Received struct {
	Text     string    `json:"text"`
	TS       time.Time `json:"ts"`
	TimedOut bool      `json:"timed_out,omitempty"`
	OCR      string    `json:"ocr,omitempty"`
}

// Document is a task file as a generic JSON object.
type Document struct {
	fields map[string]any
}

// MalformedError reports a task file that is not a JSON object.
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed task: %v", e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Parse decodes a task file body. Anything other than a single JSON object
// is a MalformedError.
func Parse(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, &MalformedError{Err: err}
	}
	if fields == nil {
		return nil, &MalformedError{Err: fmt.Errorf("top-level value is not an object")}
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, &MalformedError{Err: fmt.Errorf("extra data after the task object")}
	}
	return &Document{fields: fields}, nil
}

// NewDocument builds the document a producer writes for a new message.
func NewDocument(from, to, text, traceID string, responseTimeout time.Duration) *Document {
	fields := map[string]any{
		"from":    from,
		"to":      to,
		"intent":  DefaultIntent,
		"payload": map[string]any{"text": text},
		"trace":   map[string]any{"id": traceID, "parent": nil},
	}
	if responseTimeout > 0 {
		fields["nexus"] = map[string]any{"response_timeout_sec": responseTimeout.Seconds()}
	}
	return &Document{fields: fields}
}

// NewRawDocument wraps text that could not be parsed, so it can still be
// archived with its annotations.
func NewRawDocument(raw string) *Document {
	return &Document{fields: map[string]any{"raw": raw}}
}

// IsShutdown reports whether payload.text is the shutdown control payload.
// Only payload.text is consulted, so a bare control message still stops the daemon.
func (d *Document) IsShutdown() bool {
	text, ok := d.lookup("payload", "text").(string)
	return ok && strings.EqualFold(text, ShutdownPayload)
}

// TraceID returns trace.id if present, for logging before validation.
func (d *Document) TraceID() string {
	id, _ := d.lookup("trace", "id").(string)
	return id
}

// Received returns the reply annotation if the document carries one.
func (d *Document) Received() (Received, bool) {
	raw, ok := d.fields["received"].(map[string]any)
	if !ok {
		return Received{}, false
	}
	var r Received
	r.Text, _ = raw["text"].(string)
	r.OCR, _ = raw["ocr"].(string)
	r.TimedOut, _ = raw["timed_out"].(bool)
	if ts, ok := raw["ts"].(string); ok {
		r.TS, _ = time.Parse(time.RFC3339Nano, ts)
	}
	return r, true
}

// SetReceived attaches the captured reply.
func (d *Document) SetReceived(r Received) {
	rec := map[string]any{
		"text": r.Text,
		"ts":   r.TS.Format(time.RFC3339Nano),
	}
	if r.TimedOut {
		rec["timed_out"] = true
	}
	if r.OCR != "" {
		rec["ocr"] = r.OCR
	}
	d.fields["received"] = rec
}

// SetLog records the processing note under nexus_log.
func (d *Document) SetLog(note string) {
	d.fields["nexus_log"] = note
}

// SetError records a typed failure on the document.
func (d *Document) SetError(kind, msg string) {
	d.fields["error"] = map[string]any{"kind": kind, "message": msg}
}

// Field returns a top-level field, mostly for tests and inspection.
func (d *Document) Field(name string) (any, bool) {
	v, ok := d.fields[name]
	return v, ok
}

// MarshalJSON renders the document's fields.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.fields)
}

// Encode renders the document as indented JSON without HTML escaping.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d.fields); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) lookup(path ...string) any {
	var cur any = d.fields
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}
