// Package addressbook resolves logical destination names to delivery
// identifiers.
//
// The book is built once per daemon start from a static JSON file, optionally
// overlaid with live discovery results. Discovery only ever replaces an
// identifier or adds a name; statically configured names are never dropped.
package addressbook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/aki/nexus/internal/core/logger"
)

// ExampleSuffix names the template file used when the real file is absent
const ExampleSuffix = ".example"

// ErrUnresolved is matched by every *UnresolvedError
var ErrUnresolved = errors.New("address unresolved")

// UnresolvedError reports a name that has no usable identifier.
type UnresolvedError struct {
	Name string
	// Known is true when the name exists but has no identifier
	Known bool
	// Suggestion is the closest known name, if any is close enough
	Suggestion string
}

func (e *UnresolvedError) Error() string {
	msg := fmt.Sprintf("address %q not found", e.Name)
	if e.Known {
		msg = fmt.Sprintf("address %q has no identifier", e.Name)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *UnresolvedError) Is(target error) bool {
	return target == ErrUnresolved
}

// Discoverer finds live destinations. Implementations return only entries
// they actually found.
type Discoverer interface {
	Discover(ctx context.Context) (map[string]Entry, error)
}

// Options configures Resolve.
type Options struct {
	// Path of the static address file
	Path string
	// Discoverer is consulted when non-nil
	Discoverer Discoverer
	Logger     logger.Logger
}

// Book is a resolved, read-only address book.
type Book struct {
	entries map[string]Entry
}

// New builds a Book from entries directly
func New(entries map[string]Entry) *Book {
	b := &Book{entries: make(map[string]Entry, len(entries))}
	for k, v := range entries {
		b.entries[k] = v
	}
	return b
}

// Resolve loads the static file (or its example) and merges discovery.
// A discovery error is logged and the static book is used as-is.
func Resolve(ctx context.Context, opts Options) (*Book, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	static, source, err := loadStatic(opts.Path)
	if err != nil {
		return nil, err
	}
	if source == "" {
		log.Warn("no address file found", "path", opts.Path)
	} else {
		log.Debug("loaded address file", "path", source, "entries", len(static))
	}

	book := New(static)
	if opts.Discoverer == nil {
		return book, nil
	}

	found, err := opts.Discoverer.Discover(ctx)
	if err != nil {
		log.Warn("address discovery failed", "error", err)
		return book, nil
	}
	book.merge(found)
	log.Debug("merged discovered addresses", "found", len(found))
	return book, nil
}

func loadStatic(path string) (map[string]Entry, string, error) {
	if path == "" {
		return map[string]Entry{}, "", nil
	}
	for _, candidate := range []string{path, path + ExampleSuffix} {
		data, err := os.ReadFile(candidate)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, "", fmt.Errorf("failed to read address file: %w", err)
		}

		entries := map[string]Entry{}
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, "", fmt.Errorf("failed to parse address file %s: %w", candidate, err)
		}
		return entries, candidate, nil
	}
	return map[string]Entry{}, "", nil
}

// merge overlays discovered entries: identifiers replace, titles fill in,
// new names are added.
func (b *Book) merge(found map[string]Entry) {
	for name, d := range found {
		if d.Identifier == "" {
			continue
		}
		e := b.entries[name]
		e.Identifier = d.Identifier
		if d.Title != "" {
			e.Title = d.Title
		}
		if e.DisplayName == "" {
			e.DisplayName = d.DisplayName
		}
		b.entries[name] = e
	}
}

// Lookup returns the entry for name, or an *UnresolvedError when the name is
// unknown or has no identifier.
func (b *Book) Lookup(name string) (Entry, error) {
	e, ok := b.entries[name]
	if ok && e.Resolvable() {
		return e, nil
	}
	return Entry{}, &UnresolvedError{
		Name:       name,
		Known:      ok,
		Suggestion: b.suggest(name),
	}
}

// suggest returns the closest resolvable name within a third of its length
func (b *Book) suggest(name string) string {
	if name == "" {
		return ""
	}
	best, bestDist := "", len(name)/3+1
	for _, candidate := range b.Names() {
		if candidate == name || !b.entries[candidate].Resolvable() {
			continue
		}
		if d := levenshtein.ComputeDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}

// Names returns all names, sorted
func (b *Book) Names() []string {
	names := make([]string, 0, len(b.entries))
	for name := range b.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns a copy of the book's contents
func (b *Book) Entries() map[string]Entry {
	out := make(map[string]Entry, len(b.entries))
	for k, v := range b.entries {
		out[k] = v
	}
	return out
}

// Len returns the number of names in the book
func (b *Book) Len() int { return len(b.entries) }
