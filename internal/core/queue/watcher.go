package queue

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch notifies on the returned channel when a task file is created or
// renamed into the inbox. Notifications are hints only: the daemon still
// lists the inbox, so dropped events cost at most one poll interval. The
// watcher stops when ctx is done; the channel is never closed.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(s.inbox); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.inbox, err)
	}

	wake := make(chan struct{}, 1)
	go func() {
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				name := filepath.Base(event.Name)
				if !strings.HasSuffix(name, TaskExt) || strings.HasPrefix(name, ".") {
					continue
				}
				select {
				case wake <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Warn("inbox watcher error", "error", err)
			}
		}
	}()
	return wake, nil
}
