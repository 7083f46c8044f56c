package tmux

import (
	"context"

	"github.com/aki/nexus/internal/core/addressbook"
)

// Discoverer finds destinations among live tmux panes. A pane is addressed
// by its @nexus_address option when set, otherwise by its window name. Dead
// panes are skipped; when several panes share a name the first one wins.
type Discoverer struct {
	adapter Adapter
}

// NewDiscoverer creates a Discoverer
func NewDiscoverer(adapter Adapter) *Discoverer {
	return &Discoverer{adapter: adapter}
}

// Discover implements addressbook.Discoverer
func (d *Discoverer) Discover(ctx context.Context) (map[string]addressbook.Entry, error) {
	panes, err := d.adapter.ListPanes(ctx)
	if err != nil {
		return nil, err
	}

	found := make(map[string]addressbook.Entry)
	for _, p := range panes {
		if p.Dead {
			continue
		}
		name := p.Address
		if name == "" {
			name = p.WindowName
		}
		if name == "" {
			continue
		}
		if _, taken := found[name]; taken {
			continue
		}
		found[name] = addressbook.Entry{
			Identifier: p.ID,
			Title:      p.Title,
		}
	}
	return found, nil
}
