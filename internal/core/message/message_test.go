package message

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

const validTask = `{
  "from": "terminal",
  "to": "claude",
  "intent": "chat",
  "payload": {"text": "hello", "meta": {"lang": "ja-JP"}},
  "trace": {"id": "t-1", "parent": null},
  "nexus": {"response_timeout_sec": 20}
}`

func TestValidate(t *testing.T) {
	doc, err := Parse([]byte(validTask))
	require.NoError(t, err)

	msg, err := Validate(doc)
	require.NoError(t, err)
	assert.Equal(t, Message{
		From:            "terminal",
		To:              "claude",
		Intent:          "chat",
		Text:            "hello",
		TraceID:         "t-1",
		ResponseTimeout: 20 * time.Second,
	}, msg)
}

func TestValidate_FirstFailingField(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		field  string
		reason string
	}{
		{"missing from", `{"to":"a","payload":{"text":"x"},"trace":{"id":"1"}}`, "from", "missing"},
		{"empty to", `{"from":"a","to":"","payload":{"text":"x"},"trace":{"id":"1"}}`, "to", "empty"},
		{"missing payload.text", `{"from":"a","to":"b","payload":{},"trace":{"id":"1"}}`, "payload.text", "missing"},
		{"payload not object", `{"from":"a","to":"b","payload":"x","trace":{"id":"1"}}`, "payload.text", "missing"},
		{"numeric trace id", `{"from":"a","to":"b","payload":{"text":"x"},"trace":{"id":7}}`, "trace.id", "not a string"},
		{"bad timeout", `{"from":"a","to":"b","payload":{"text":"x"},"trace":{"id":"1"},"nexus":{"response_timeout_sec":"soon"}}`, "nexus.response_timeout_sec", "not a non-negative number"},
		{"from reported before payload", `{"payload":{}}`, "from", "missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.body))
			require.NoError(t, err)

			_, err = Validate(doc)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.reason, verr.Reason)
			assert.Equal(t, "invalid-"+tt.field, verr.Note())
		})
	}
}

func TestValidate_DefaultIntent(t *testing.T) {
	doc, err := Parse([]byte(`{"from":"a","to":"b","payload":{"text":"x"},"trace":{"id":"1"}}`))
	require.NoError(t, err)
	msg, err := Validate(doc)
	require.NoError(t, err)
	assert.Equal(t, DefaultIntent, msg.Intent)
	assert.Zero(t, msg.ResponseTimeout)
}

func TestParse_Malformed(t *testing.T) {
	for _, body := range []string{
		`{"from":`,
		`[1,2]`,
		`null`,
		``,
		`{"from":"a","to":"b","payload":{"text":"hi"},"trace":{"id":"t"}} {"garbage":`,
		`{"from":"a"} {"from":"b"}`,
	} {
		_, err := Parse([]byte(body))
		var merr *MalformedError
		assert.True(t, errors.As(err, &merr), "body %q: got %v", body, err)
	}
}

func TestIsShutdown(t *testing.T) {
	for _, text := range []string{"NEXUS-END", "nexus-end", "Nexus-End"} {
		doc := NewDocument("a", "b", text, "t", 0)
		assert.True(t, doc.IsShutdown(), text)
	}
	for _, text := range []string{"NEXUS-ENDING", " nexus-end\n", "NEXUS-END "} {
		assert.False(t, NewDocument("a", "b", text, "t", 0).IsShutdown(), text)
	}

	bare, err := Parse([]byte(`{"payload":{"text":"nexus-end"}}`))
	require.NoError(t, err)
	assert.True(t, bare.IsShutdown())
}

func TestDocument_RoundTripKeepsFields(t *testing.T) {
	doc, err := Parse([]byte(validTask))
	require.NoError(t, err)

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	doc.SetReceived(Received{Text: "reply", TS: ts, TimedOut: true})
	doc.SetLog("timeout")

	out, err := doc.Encode()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "t-1", got["trace"].(map[string]any)["id"])
	assert.Equal(t, "ja-JP", got["payload"].(map[string]any)["meta"].(map[string]any)["lang"])
	assert.Equal(t, "reply", got["received"].(map[string]any)["text"])
	assert.Equal(t, true, got["received"].(map[string]any)["timed_out"])
	assert.Equal(t, "timeout", got["nexus_log"])

	again, err := Parse(out)
	require.NoError(t, err)
	rec, ok := again.Received()
	require.True(t, ok)
	assert.Equal(t, "reply", rec.Text)
	assert.True(t, rec.TS.Equal(ts))
}

func TestDecodeText(t *testing.T) {
	const want = "こんにちは"

	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(want)
	require.NoError(t, err)
	utf16be, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().String(want)
	require.NoError(t, err)
	sjis, err := japanese.ShiftJIS.NewEncoder().String(want)
	require.NoError(t, err)

	tests := []struct {
		name   string
		in     []byte
		legacy bool
	}{
		{"plain utf-8", []byte(want), false},
		{"utf-8 bom", append([]byte{0xEF, 0xBB, 0xBF}, want...), false},
		{"utf-16le bom", []byte(utf16le), false},
		{"utf-16be bom", []byte(utf16be), false},
		{"shift_jis fallback", []byte(sjis), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.in, nil)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLegacyEncoding(t *testing.T) {
	enc, err := LegacyEncoding("windows-1252")
	require.NoError(t, err)
	assert.Equal(t, charmap.Windows1252, enc)

	enc, err = LegacyEncoding("")
	require.NoError(t, err)
	assert.Equal(t, japanese.ShiftJIS, enc)

	_, err = LegacyEncoding("klingon")
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.json")
	require.NoError(t, os.WriteFile(path, append([]byte{0xEF, 0xBB, 0xBF}, validTask...), 0o644))

	doc, err := ReadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "t-1", doc.TraceID())
}
