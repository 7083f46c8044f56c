package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatPretty represents human-readable output format
	FormatPretty OutputFormat = "pretty"
	// FormatJSON represents JSON output format
	FormatJSON OutputFormat = "json"
	// FormatYAML represents YAML output format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat converts a string to OutputFormat
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "pretty", "":
		return FormatPretty, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Formatter is the interface for output formatting
type Formatter interface {
	// Output formats and displays any data
	Output(data interface{}) error

	// OutputError formats and displays an error
	OutputError(err error) error

	// IsStructured returns true if this formatter emits machine-readable output
	IsStructured() bool
}

// NewFormatter creates a formatter writing to w
func NewFormatter(format OutputFormat, w io.Writer) (Formatter, error) {
	switch format {
	case FormatPretty:
		return &prettyFormatter{w: w}, nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return &jsonFormatter{encoder: enc}, nil
	case FormatYAML:
		return &yamlFormatter{w: w}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// prettyFormatter implements Formatter for human-readable output
type prettyFormatter struct {
	w io.Writer
}

func (f *prettyFormatter) Output(data interface{}) error {
	// data is expected to be pre-rendered text
	if str, ok := data.(string); ok {
		_, err := fmt.Fprint(f.w, str)
		return err
	}
	_, err := fmt.Fprintln(f.w, data)
	return err
}

func (f *prettyFormatter) OutputError(err error) error {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorIcon, ErrorStyle.Render(err.Error()))
	return nil
}

func (f *prettyFormatter) IsStructured() bool {
	return false
}

// jsonFormatter implements Formatter for JSON output
type jsonFormatter struct {
	encoder *json.Encoder
}

func (f *jsonFormatter) Output(data interface{}) error {
	return f.encoder.Encode(data)
}

func (f *jsonFormatter) OutputError(err error) error {
	// errors stay on stderr as plain text for scripts
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return nil
}

func (f *jsonFormatter) IsStructured() bool {
	return true
}

// yamlFormatter implements Formatter for YAML output
type yamlFormatter struct {
	w io.Writer
}

func (f *yamlFormatter) Output(data interface{}) error {
	enc := yaml.NewEncoder(f.w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

func (f *yamlFormatter) OutputError(err error) error {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return nil
}

func (f *yamlFormatter) IsStructured() bool {
	return true
}

// GlobalFormatter is the global formatter instance
var GlobalFormatter Formatter = &prettyFormatter{w: os.Stdout}

// SetGlobalFormatter sets the global formatter, writing to Out
func SetGlobalFormatter(format OutputFormat) error {
	f, err := NewFormatter(format, Out)
	if err != nil {
		return err
	}
	GlobalFormatter = f
	return nil
}
