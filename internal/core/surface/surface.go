// Package surface defines how the relay talks to a destination's visible
// surface: inject text, read back what is shown.
//
// The concrete mechanism lives behind IO. Gateway applies the relay's
// semantics on top: a failed send is a plain false, a failed read is empty
// text.
package surface

import (
	"context"
	"fmt"
	"time"

	"github.com/aki/nexus/internal/core/logger"
)

// SubmitMode selects the keystroke that confirms injected text.
type SubmitMode string

const (
	// SubmitSingle presses Enter once
	SubmitSingle SubmitMode = "single"
	// SubmitDoubled presses Enter twice, for inputs that treat the first as a newline
	SubmitDoubled SubmitMode = "doubled"
	// SubmitModified presses a modified Enter (Ctrl+Enter)
	SubmitModified SubmitMode = "modified"
)

// InputMethod selects how text reaches the destination.
type InputMethod string

const (
	InputType  InputMethod = "type"
	InputPaste InputMethod = "paste"
)

// ParseSubmitMode validates a submit mode name
func ParseSubmitMode(s string) (SubmitMode, error) {
	switch m := SubmitMode(s); m {
	case SubmitSingle, SubmitDoubled, SubmitModified:
		return m, nil
	default:
		return "", fmt.Errorf("invalid submit mode %q (want single, doubled or modified)", s)
	}
}

// ParseInputMethod validates an input method name
func ParseInputMethod(s string) (InputMethod, error) {
	switch m := InputMethod(s); m {
	case InputType, InputPaste:
		return m, nil
	default:
		return "", fmt.Errorf("invalid input method %q (want type or paste)", s)
	}
}

// SendOptions are passed through to the IO implementation untouched.
type SendOptions struct {
	SubmitMode  SubmitMode
	InputMethod InputMethod
	// TypePause is the delay between characters when typing
	TypePause time.Duration
	// PreSubmitDelay is waited between the text and the submit keystroke
	PreSubmitDelay time.Duration
}

// IO injects text into and reads text from a destination.
type IO interface {
	Send(ctx context.Context, id, text string, opts SendOptions) error
	Read(ctx context.Context, id string) (string, error)
}

// Gateway wraps an IO with the relay's failure semantics.
type Gateway struct {
	io   IO
	opts SendOptions
	log  logger.Logger
}

// NewGateway creates a Gateway that sends with opts
func NewGateway(io IO, opts SendOptions, log logger.Logger) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	return &Gateway{io: io, opts: opts, log: log}
}

// Options returns the send options in use
func (g *Gateway) Options() SendOptions { return g.opts }

// Send delivers text to id and reports success. Errors are logged, not
// returned; the caller treats false as a hard failure for the task.
func (g *Gateway) Send(ctx context.Context, id, text string) bool {
	if err := g.io.Send(ctx, id, text, g.opts); err != nil {
		g.log.Warn("send failed", "identifier", id, "error", err)
		return false
	}
	g.log.Debug("sent text", "identifier", id, "chars", len([]rune(text)))
	return true
}

// Read returns the text currently shown by id, or "" if it cannot be read.
func (g *Gateway) Read(ctx context.Context, id string) string {
	text, _ := g.Snapshot(ctx, id)
	return text
}

// Snapshot is Read with an explicit success flag.
func (g *Gateway) Snapshot(ctx context.Context, id string) (string, bool) {
	text, err := g.io.Read(ctx, id)
	if err != nil {
		g.log.Debug("read failed", "identifier", id, "error", err)
		return "", false
	}
	return text, true
}
