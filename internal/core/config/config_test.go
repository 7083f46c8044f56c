package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)

	assert.Empty(t, s.Source)
	assert.Equal(t, "inbox", s.InboxDir)
	assert.Equal(t, "processed", s.ProcessedDir)
	assert.Equal(t, "config/addresses.json", s.AddressesFile)
	assert.Equal(t, 5*time.Second, s.PollInterval())
	assert.Equal(t, 200*time.Millisecond, s.MaturityWait())
	assert.Equal(t, 60*time.Second, s.CaptureTimeout())
	assert.Equal(t, 1200*time.Millisecond, s.StabilityWait())
	assert.Equal(t, 300*time.Millisecond, s.ResponsePollInterval())
	assert.Equal(t, 80, s.MinGrowthChars)
	assert.Equal(t, "single", s.SubmitMode)
	assert.Equal(t, "paste", s.InputMethod)
	assert.Equal(t, 20*time.Millisecond, s.TypePause())
	assert.Equal(t, 600*time.Millisecond, s.PreSubmitDelay())
	assert.Equal(t, time.Duration(0), s.PostSendWait())
	assert.True(t, s.AutoDetectAddresses)
	assert.Equal(t, "terminal", s.DefaultAddressKey)
	assert.True(t, s.ReplyToSender)
	assert.False(t, s.OCREnabled())
	assert.Equal(t, "shift_jis", s.LegacyEncoding)
	assert.False(t, s.WatchInbox)

	assert.Equal(t, s, Default())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "settings.json")
	writeSettings(t, path, `{
		"poll_interval_sec": 1,
		"min_growth_chars": 20,
		"submit_mode": "doubled",
		"input_method": "type",
		"embed_ocr_in_json": true,
		"ocr_command": "ocr-pane {id}",
		"tesseract_path": "ignored unknown key"
	}`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, s.Source)
	assert.Equal(t, time.Second, s.PollInterval())
	assert.Equal(t, 20, s.MinGrowthChars)
	assert.Equal(t, "doubled", s.SubmitMode)
	assert.Equal(t, "type", s.InputMethod)
	assert.True(t, s.OCREnabled())
	// untouched keys keep defaults
	assert.Equal(t, 60*time.Second, s.CaptureTimeout())
}

func TestLoadFallsBackToExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	writeSettings(t, path+ExampleSuffix, `{"default_address_key": "operator"}`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path+ExampleSuffix, s.Source)
	assert.Equal(t, "operator", s.DefaultAddressKey)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	writeSettings(t, path, `{"min_growth_chars": 20}`)

	t.Setenv("NEXUS_MIN_GROWTH_CHARS", "5")
	t.Setenv("NEXUS_RESPONSE_POLL_INTERVAL_SEC", "0.5")
	t.Setenv("NEXUS_WATCH_INBOX", "true")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, s.MinGrowthChars)
	assert.Equal(t, 500*time.Millisecond, s.ResponsePollInterval())
	assert.True(t, s.WatchInbox)
}

func TestLoadSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{"poll_interval_sec": `},
		{"not an object", `[1, 2]`},
		{"wrong type", `{"poll_interval_sec": "fast"}`},
		{"zero poll interval", `{"poll_interval_sec": 0}`},
		{"bad submit mode", `{"submit_mode": "triple"}`},
		{"fractional growth", `{"min_growth_chars": 2.5}`},
		{"negative wait", `{"post_send_wait_sec": -1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.json")
			writeSettings(t, path, tt.content)

			_, err := Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadEnvValidation(t *testing.T) {
	t.Setenv("NEXUS_INPUT_METHOD", "clipboard")

	_, err := Load(filepath.Join(t.TempDir(), "settings.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "input_method")
}

func TestValidateCollectsProblems(t *testing.T) {
	s := Default()
	s.PollIntervalSec = 0
	s.MinGrowthChars = 0
	s.SubmitMode = "x"

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval_sec must be positive")
	assert.Contains(t, err.Error(), "min_growth_chars must be at least 1")
	assert.Contains(t, err.Error(), "submit_mode")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "settings.json.example")

	require.NoError(t, Default().WriteFile(path))
	assert.Error(t, Default().WriteFile(path), "must not overwrite")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, ValidateDocument(data), "written defaults must satisfy the schema")

	s, err := Load(filepath.Join(filepath.Dir(path), "settings.json"))
	require.NoError(t, err)
	assert.Equal(t, path, s.Source)
	assert.Equal(t, 80, s.MinGrowthChars)
}
