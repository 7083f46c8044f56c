package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(WithOutput(&buf), WithLevel(slog.LevelWarn))

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestNop(t *testing.T) {
	log := Nop()
	require.NotNil(t, log)
	log.Info("dropped", "task", "a.json")
	log.With("k", "v").WithGroup("g").Error("dropped")
}

func TestWithAndGroup(t *testing.T) {
	t.Run("text carries With fields", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(WithOutput(&buf), WithDebug()).With("trace_id", "t-1")
		log.Info("claimed")
		assert.Contains(t, buf.String(), "trace_id=t-1")
	})

	t.Run("json nests groups", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(WithOutput(&buf), WithFormat(FormatJSON)).WithGroup("capture")
		log.Info("stable", "chars", 120)
		out := buf.String()
		assert.Contains(t, out, `"msg":"stable"`)
		assert.Contains(t, out, `"capture":{"chars":120}`)
	})
}

func TestContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), New(WithOutput(&buf)))
	FromContext(ctx).Info("from context")
	assert.Contains(t, buf.String(), "from context")

	// no logger stored: must not panic
	FromContext(context.Background()).Info("nothing")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.True(t, err != nil && strings.Contains(err.Error(), "xml"))
}
