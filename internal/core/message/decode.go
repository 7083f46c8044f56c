package message

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// LegacyEncoding looks up the fallback codepage by its WHATWG name
// (e.g. "shift_jis", "windows-1252"). An empty name means Shift JIS.
func LegacyEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return japanese.ShiftJIS, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown legacy encoding %q: %w", name, err)
	}
	return enc, nil
}

// DecodeText turns raw file bytes into a string. A UTF-8 or UTF-16 byte order
// mark selects that encoding; otherwise the bytes are UTF-8 if valid, else
// they are decoded with the legacy codepage.
func DecodeText(b []byte, legacy encoding.Encoding) (string, error) {
	if bytes.HasPrefix(b, bomUTF8) || bytes.HasPrefix(b, bomUTF16LE) || bytes.HasPrefix(b, bomUTF16BE) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), b)
		if err != nil {
			return "", fmt.Errorf("failed to decode BOM text: %w", err)
		}
		return string(out), nil
	}

	if utf8.Valid(b) {
		return string(b), nil
	}

	if legacy == nil {
		legacy = japanese.ShiftJIS
	}
	out, err := legacy.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("failed to decode legacy text: %w", err)
	}
	return string(out), nil
}

// ReadFile reads and parses a task file with encoding detection.
func ReadFile(path string, legacy encoding.Encoding) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := DecodeText(raw, legacy)
	if err != nil {
		return nil, &MalformedError{Err: err}
	}
	return Parse([]byte(text))
}
