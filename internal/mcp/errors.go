package mcp

import (
	"fmt"
	"strings"
)

// ErrorWithSuggestions represents an error with tool suggestions
type ErrorWithSuggestions struct {
	Message     string
	Suggestions []string
}

// Error returns the error message with suggestions
func (e *ErrorWithSuggestions) Error() string {
	if len(e.Suggestions) == 0 {
		return e.Message
	}

	var sb strings.Builder
	sb.WriteString(e.Message)
	sb.WriteString("\n\nTry one of these tools:\n")
	for _, suggestion := range e.Suggestions {
		sb.WriteString("  - ")
		sb.WriteString(suggestion)
		sb.WriteString("\n")
	}
	return sb.String()
}

// NewErrorWithSuggestions creates a new error with tool suggestions
func NewErrorWithSuggestions(message string, suggestions ...string) error {
	return &ErrorWithSuggestions{
		Message:     message,
		Suggestions: suggestions,
	}
}

// TraceNotFoundError is returned when no task carries the trace id
func TraceNotFoundError(traceID string) error {
	return NewErrorWithSuggestions(
		fmt.Sprintf("no task found for trace id: %s", traceID),
		"relay_queue - Check what is still in the inbox",
		"relay_send - Send the message again",
	)
}

// UnknownAddressError is returned when a recipient is not in the address book
func UnknownAddressError(name, suggestion string) error {
	msg := fmt.Sprintf("unknown address: %s", name)
	if suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return NewErrorWithSuggestions(msg,
		"relay_addresses - List the names messages can be sent to",
	)
}

// MissingArgumentError is returned when a required tool argument is absent
func MissingArgumentError(name string) error {
	return fmt.Errorf("invalid or missing %s argument", name)
}
