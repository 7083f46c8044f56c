package tmux

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aki/nexus/internal/core/addressbook"
)

func TestDiscoverer(t *testing.T) {
	mock := NewMockAdapter()
	mock.AddPane(Pane{ID: "%0", Session: "main", WindowName: "terminal", Title: "host"})
	mock.AddPane(Pane{ID: "%1", Session: "main", WindowName: "zsh", Title: "claude", Address: "claude"})
	mock.AddPane(Pane{ID: "%2", Session: "main", WindowName: "terminal", Title: "second"})
	mock.AddPane(Pane{ID: "%3", Session: "main", WindowName: "gemini", Dead: true})

	found, err := NewDiscoverer(mock).Discover(context.Background())
	require.NoError(t, err)

	want := map[string]addressbook.Entry{
		"terminal": {Identifier: "%0", Title: "host"},
		"claude":   {Identifier: "%1", Title: "claude"},
	}
	if diff := cmp.Diff(want, found); diff != "" {
		t.Errorf("discovered mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscovererError(t *testing.T) {
	mock := NewMockAdapter()
	mock.SetListError(errors.New("no server"))

	_, err := NewDiscoverer(mock).Discover(context.Background())
	assert.Error(t, err)
}

func TestDiscovererFeedsAddressBook(t *testing.T) {
	mock := NewMockAdapter()
	mock.AddPane(Pane{ID: "%5", Session: "main", WindowName: "claude"})

	book, err := addressbook.Resolve(context.Background(), addressbook.Options{Discoverer: NewDiscoverer(mock)})
	require.NoError(t, err)

	e, err := book.Lookup("claude")
	require.NoError(t, err)
	assert.Equal(t, "%5", e.Identifier)
}
