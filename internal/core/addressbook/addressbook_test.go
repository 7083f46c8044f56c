package addressbook

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDiscoverer struct {
	found map[string]Entry
	err   error
	calls int
}

func (f *fakeDiscoverer) Discover(ctx context.Context) (map[string]Entry, error) {
	f.calls++
	return f.found, f.err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestEntryUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Entry
	}{
		{
			name: "identifier string",
			json: `{"identifier":"%3","display_name":"Claude"}`,
			want: Entry{Identifier: "%3", DisplayName: "Claude"},
		},
		{
			name: "legacy numeric pid",
			json: `{"pid":12345}`,
			want: Entry{Identifier: "12345"},
		},
		{
			name: "identifier wins over pid",
			json: `{"identifier":"a","pid":1}`,
			want: Entry{Identifier: "a"},
		},
		{
			name: "null identifier",
			json: `{"identifier":null,"title":"t"}`,
			want: Entry{Title: "t"},
		},
		{
			name: "whitespace trimmed",
			json: `{"identifier":"  %1 "}`,
			want: Entry{Identifier: "%1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Entry
			require.NoError(t, json.Unmarshal([]byte(tt.json), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntryUnmarshalRejectsObjects(t *testing.T) {
	var e Entry
	assert.Error(t, json.Unmarshal([]byte(`{"identifier":{"x":1}}`), &e))
}

func TestResolveStaticOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	writeFile(t, path, `{"terminal":{"identifier":"%0"},"claude":{"pid":42,"display_name":"Claude"}}`)

	book, err := Resolve(context.Background(), Options{Path: path})
	require.NoError(t, err)

	want := map[string]Entry{
		"terminal": {Identifier: "%0"},
		"claude":   {Identifier: "42", DisplayName: "Claude"},
	}
	if diff := cmp.Diff(want, book.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"claude", "terminal"}, book.Names())
}

func TestResolveFallsBackToExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	writeFile(t, path+ExampleSuffix, `{"terminal":{"identifier":"%9"}}`)

	book, err := Resolve(context.Background(), Options{Path: path})
	require.NoError(t, err)

	e, err := book.Lookup("terminal")
	require.NoError(t, err)
	assert.Equal(t, "%9", e.Identifier)
}

func TestResolveMissingFile(t *testing.T) {
	book, err := Resolve(context.Background(), Options{Path: filepath.Join(t.TempDir(), "none.json")})
	require.NoError(t, err)
	assert.Equal(t, 0, book.Len())
}

func TestResolveMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	writeFile(t, path, `{not json`)

	_, err := Resolve(context.Background(), Options{Path: path})
	assert.Error(t, err)
}

func TestResolveMergesDiscovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	writeFile(t, path, `{
		"terminal": {"identifier": "%0", "display_name": "Operator"},
		"claude":   {"identifier": "%1", "display_name": "Claude"},
		"offline":  {"identifier": "%7"}
	}`)

	disc := &fakeDiscoverer{found: map[string]Entry{
		"claude": {Identifier: "%4", Title: "claude:main"},
		"gemini": {Identifier: "%5", Title: "gemini"},
		"blank":  {Title: "no id"},
	}}

	book, err := Resolve(context.Background(), Options{Path: path, Discoverer: disc})
	require.NoError(t, err)
	assert.Equal(t, 1, disc.calls)

	want := map[string]Entry{
		"terminal": {Identifier: "%0", DisplayName: "Operator"},
		"claude":   {Identifier: "%4", DisplayName: "Claude", Title: "claude:main"},
		"offline":  {Identifier: "%7"},
		"gemini":   {Identifier: "%5", Title: "gemini"},
	}
	if diff := cmp.Diff(want, book.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveDiscoveryError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	writeFile(t, path, `{"terminal":{"identifier":"%0"}}`)

	disc := &fakeDiscoverer{err: errors.New("tmux not running")}
	book, err := Resolve(context.Background(), Options{Path: path, Discoverer: disc})
	require.NoError(t, err)
	assert.Equal(t, []string{"terminal"}, book.Names())
}

func TestLookup(t *testing.T) {
	book := New(map[string]Entry{
		"terminal": {Identifier: "%0"},
		"claude":   {Identifier: "%1"},
		"nobody":   {DisplayName: "no identifier"},
	})

	t.Run("found", func(t *testing.T) {
		e, err := book.Lookup("claude")
		require.NoError(t, err)
		assert.Equal(t, "%1", e.Identifier)
	})

	t.Run("unknown with suggestion", func(t *testing.T) {
		_, err := book.Lookup("claud")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnresolved)

		var unresolved *UnresolvedError
		require.ErrorAs(t, err, &unresolved)
		assert.False(t, unresolved.Known)
		assert.Equal(t, "claude", unresolved.Suggestion)
		assert.Contains(t, err.Error(), `did you mean "claude"`)
	})

	t.Run("unknown without suggestion", func(t *testing.T) {
		_, err := book.Lookup("ghost")
		var unresolved *UnresolvedError
		require.ErrorAs(t, err, &unresolved)
		assert.Empty(t, unresolved.Suggestion)
	})

	t.Run("known without identifier", func(t *testing.T) {
		_, err := book.Lookup("nobody")
		var unresolved *UnresolvedError
		require.ErrorAs(t, err, &unresolved)
		assert.True(t, unresolved.Known)
		assert.Contains(t, err.Error(), "has no identifier")
	})
}

func TestNewCopiesEntries(t *testing.T) {
	src := map[string]Entry{"a": {Identifier: "1"}}
	book := New(src)
	src["a"] = Entry{Identifier: "2"}

	e, err := book.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, "1", e.Identifier)
}
