package tmux

import (
	"context"
	"fmt"
	"sync"
)

// MockAdapter is a mock implementation of tmux operations for testing
type MockAdapter struct {
	mu        sync.RWMutex
	panes     map[string]*MockPane
	order     []string
	available bool
	sendError error
	readError error
	listError error
}

// MockPane represents a mock tmux pane for testing
type MockPane struct {
	Pane
	// Input records everything typed, pasted or pressed, in order
	Input []string
	// Screens are returned by successive captures; the last one repeats
	Screens []string
	reads   int
}

// NewMockAdapter creates a new mock adapter
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		panes:     make(map[string]*MockPane),
		available: true,
	}
}

// AddPane registers a pane
func (m *MockAdapter) AddPane(p Pane) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.panes[p.ID]; !exists {
		m.order = append(m.order, p.ID)
	}
	m.panes[p.ID] = &MockPane{Pane: p}
}

// SetScreens scripts the captures of a pane
func (m *MockAdapter) SetScreens(id string, screens ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.panes[id]; ok {
		p.Screens = screens
		p.reads = 0
	}
}

// Input returns a copy of what was sent to a pane
func (m *MockAdapter) Input(id string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.panes[id]
	if !ok {
		return nil
	}
	return append([]string(nil), p.Input...)
}

// SetAvailable sets whether tmux is available
func (m *MockAdapter) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
}

// SetSendError sets an error to return from every send
func (m *MockAdapter) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendError = err
}

// SetReadError sets an error to return from CapturePane
func (m *MockAdapter) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readError = err
}

// SetListError sets an error to return from ListPanes
func (m *MockAdapter) SetListError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listError = err
}

// IsAvailable checks if tmux is available on the system
func (m *MockAdapter) IsAvailable() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.available
}

func (m *MockAdapter) record(target, input string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendError != nil {
		return m.sendError
	}
	p, ok := m.panes[target]
	if !ok {
		return fmt.Errorf("can't find pane: %s", target)
	}
	p.Input = append(p.Input, input)
	return nil
}

// SendLiteral records typed text
func (m *MockAdapter) SendLiteral(ctx context.Context, target, text string) error {
	if text == "" {
		return nil
	}
	return m.record(target, text)
}

// SendKey records a key as <Key>
func (m *MockAdapter) SendKey(ctx context.Context, target, key string) error {
	return m.record(target, "<"+key+">")
}

// PasteText records pasted text as [paste]text
func (m *MockAdapter) PasteText(ctx context.Context, target, text string) error {
	if text == "" {
		return nil
	}
	return m.record(target, "[paste]"+text)
}

// CapturePane returns the next scripted screen
func (m *MockAdapter) CapturePane(ctx context.Context, target string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readError != nil {
		return "", m.readError
	}
	p, ok := m.panes[target]
	if !ok {
		return "", fmt.Errorf("can't find pane: %s", target)
	}
	if len(p.Screens) == 0 {
		return "", nil
	}
	i := p.reads
	if i >= len(p.Screens) {
		i = len(p.Screens) - 1
	}
	p.reads++
	return p.Screens[i], nil
}

// ListPanes returns registered panes in insertion order
func (m *MockAdapter) ListPanes(ctx context.Context) ([]Pane, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.listError != nil {
		return nil, m.listError
	}
	panes := make([]Pane, 0, len(m.order))
	for _, id := range m.order {
		panes = append(panes, m.panes[id].Pane)
	}
	return panes, nil
}
