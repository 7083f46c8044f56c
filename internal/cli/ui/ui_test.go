package ui

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/aki/nexus/internal/core/addressbook"
	"github.com/aki/nexus/internal/core/queue"
	"github.com/aki/nexus/internal/core/relay"
)

func captureOut(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := Out
	Out = &buf
	t.Cleanup(func() { Out = old })
	return &buf
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      OutputFormat
		wantError bool
	}{
		{name: "empty string defaults to pretty", input: "", want: FormatPretty},
		{name: "pretty format", input: "pretty", want: FormatPretty},
		{name: "json format", input: "json", want: FormatJSON},
		{name: "yaml format", input: "yaml", want: FormatYAML},
		{name: "yml alias", input: "yml", want: FormatYAML},
		{name: "invalid format", input: "xml", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(FormatJSON, &buf)
	require.NoError(t, err)
	assert.True(t, f.IsStructured())

	snap := &queue.Snapshot{Pending: []string{"a.json"}, OK: 2}
	require.NoError(t, f.Output(snap))

	var got queue.Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []string{"a.json"}, got.Pending)
	assert.Equal(t, 2, got.OK)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(FormatYAML, &buf)
	require.NoError(t, err)
	assert.True(t, f.IsStructured())

	entries := map[string]addressbook.Entry{"claude": {Identifier: "%1", Title: "claude"}}
	require.NoError(t, f.Output(entries))

	var got map[string]addressbook.Entry
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, entries, got)
}

func TestPrettyFormatter(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(FormatPretty, &buf)
	require.NoError(t, err)
	assert.False(t, f.IsStructured())

	require.NoError(t, f.Output("already rendered\n"))
	require.NoError(t, f.Output(42))
	assert.Equal(t, "already rendered\n42\n", buf.String())
}

func TestSetGlobalFormatter(t *testing.T) {
	original := GlobalFormatter
	defer func() { GlobalFormatter = original }()

	require.NoError(t, SetGlobalFormatter(FormatJSON))
	assert.True(t, GlobalFormatter.IsStructured())

	require.NoError(t, SetGlobalFormatter(FormatPretty))
	assert.False(t, GlobalFormatter.IsStructured())

	assert.Error(t, SetGlobalFormatter("xml"))
}

func TestPrintQueue(t *testing.T) {
	buf := captureOut(t)

	PrintQueue(&queue.Snapshot{
		Pending:    []string{"001.json", "002.json"},
		InProgress: []string{"000.json.processing"},
		Failed:     []string{"bad.json.failed"},
		OK:         3,
		Error:      1,
	})

	out := buf.String()
	assert.Contains(t, out, "Pending (2)")
	assert.Contains(t, out, "002.json")
	assert.Contains(t, out, "000.json.processing")
	assert.Contains(t, out, "bad.json.failed")
	assert.Contains(t, out, "Archived (4)")
	assert.Contains(t, out, "STATUS")
}

func TestRenderOutcome(t *testing.T) {
	tests := []struct {
		name   string
		result relay.Result
		want   string
	}{
		{"delivered", relay.Result{}, "OK"},
		{"timeout", relay.Result{Kind: relay.KindCaptureTimeout, Note: "timeout"}, "CaptureTimeout"},
		{"failure keeps note", relay.Result{Kind: relay.KindUnresolvedAddress, Note: "no-to-address"}, "UnresolvedAddress (no-to-address)"},
		{"shutdown", relay.Result{Shutdown: true, Note: "shutdown"}, "Shutdown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, RenderOutcome(tt.result), tt.want)
		})
	}
}

func TestStatusStyle(t *testing.T) {
	assert.Equal(t, SuccessStyle.Render("x"), StatusStyle(queue.StatusOK).Render("x"))
	assert.Equal(t, ErrorStyle.Render("x"), StatusStyle(queue.StatusError).Render("x"))
	assert.Equal(t, InfoStyle.Render("x"), StatusStyle(queue.StatusShutdown).Render("x"))
}

func TestPrintAddresses(t *testing.T) {
	buf := captureOut(t)

	PrintAddresses(addressbook.New(map[string]addressbook.Entry{
		"terminal": {Identifier: "%0", DisplayName: "Operator"},
		"offline":  {},
	}))

	out := buf.String()
	assert.Contains(t, out, "Addresses (2)")
	assert.Contains(t, out, "Operator")
	assert.Contains(t, out, "unresolved")
}

func TestPrintAddressesEmpty(t *testing.T) {
	buf := captureOut(t)
	PrintAddresses(addressbook.New(nil))
	assert.Contains(t, buf.String(), "No addresses configured")
}

func TestPrintResults(t *testing.T) {
	buf := captureOut(t)

	PrintResults([]relay.Result{
		{Task: "a.json", TraceID: "t1", Archive: "/p/ok/x_a.json"},
		{Task: "b.json", Kind: relay.KindDispatchFailure, Note: "send-failed", Archive: "/p/error/x_b-send-failed.json"},
		{Task: "c.json", Shutdown: true},
	})

	out := buf.String()
	assert.Contains(t, out, "Processed (3)")
	assert.Contains(t, out, "x_a.json")
	assert.Contains(t, out, "send-failed")
	assert.Contains(t, out, "Shutdown")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "< 1m", FormatDuration(30*time.Second))
	assert.Equal(t, "5m", FormatDuration(5*time.Minute))
	assert.Equal(t, "3h", FormatDuration(3*time.Hour))
	assert.Equal(t, "2d", FormatDuration(49*time.Hour))
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0B"},
		{1023, "1023B"},
		{1024, "1.0KB"},
		{1536, "1.5KB"},
		{1048576, "1.0MB"},
		{2147483648, "2.0GB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatSize(tt.bytes))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hel…", Truncate("hello", 4))
	assert.Equal(t, "日本…", Truncate("日本語です", 3))
}
