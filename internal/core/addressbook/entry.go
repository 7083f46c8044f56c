package addressbook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Entry maps a logical name to a delivery identifier.
type Entry struct {
	// Identifier is what the surface adapter addresses (a pane id, a pid)
	Identifier  string `json:"identifier" yaml:"identifier"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	// Title is filled in by discovery
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// UnmarshalJSON accepts the identifier under "identifier" or the older "pid"
// key, as a string or a number.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Identifier  json.RawMessage `json:"identifier"`
		PID         json.RawMessage `json:"pid"`
		DisplayName string          `json:"display_name"`
		Title       string          `json:"title"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id := raw.Identifier
	if len(id) == 0 || string(id) == "null" {
		id = raw.PID
	}
	identifier, err := scalarString(id)
	if err != nil {
		return fmt.Errorf("identifier: %w", err)
	}

	*e = Entry{
		Identifier:  identifier,
		DisplayName: raw.DisplayName,
		Title:       raw.Title,
	}
	return nil
}

func scalarString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("expected string or number, got %s", raw)
}

// Resolvable reports whether the entry has an identifier to deliver to
func (e Entry) Resolvable() bool {
	return e.Identifier != ""
}
