package queue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrTaskExists is returned by Enqueue when the inbox already holds the name
var ErrTaskExists = errors.New("task already exists in inbox")

// Enqueue writes body into the inbox under name. The file appears under its
// final name only once fully written, so the daemon never sees a partial task.
func (s *Store) Enqueue(name string, body []byte) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid task name %q", name)
	}
	if !strings.HasSuffix(name, TaskExt) {
		name += TaskExt
	}
	if err := os.MkdirAll(s.inbox, 0o755); err != nil {
		return "", fmt.Errorf("failed to create inbox: %w", err)
	}

	path := filepath.Join(s.inbox, name)
	if _, err := os.Lstat(path); err == nil {
		return "", fmt.Errorf("%w: %s", ErrTaskExists, name)
	}
	if err := writeFileAtomic(path, body); err != nil {
		return "", err
	}

	s.log.Debug("enqueued task", "task", name)
	return path, nil
}

// NewTraceID returns an id of the form <prefix>-<UTC timestamp>-<8 hex>.
func NewTraceID(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
}

// TaskName derives an inbox file name from a trace id
func TaskName(traceID string) string {
	return sanitizeNote(traceID) + TaskExt
}
