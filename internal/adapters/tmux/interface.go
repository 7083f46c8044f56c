package tmux

import "context"

// Pane describes one tmux pane as reported by list-panes.
type Pane struct {
	ID         string // e.g. %3
	Session    string
	WindowName string
	Title      string
	PID        int
	Dead       bool
	// Address is the pane's @nexus_address user option, if set
	Address string
}

// Target returns session:window for display
func (p Pane) Target() string {
	return p.Session + ":" + p.WindowName
}

// Adapter defines the tmux primitives the relay needs
type Adapter interface {
	IsAvailable() bool
	// SendLiteral types text into the pane without key name expansion
	SendLiteral(ctx context.Context, target, text string) error
	// SendKey sends one named key (Enter, C-Enter)
	SendKey(ctx context.Context, target, key string) error
	// PasteText loads text into a buffer and pastes it into the pane
	PasteText(ctx context.Context, target, text string) error
	CapturePane(ctx context.Context, target string) (string, error)
	ListPanes(ctx context.Context) ([]Pane, error)
}
