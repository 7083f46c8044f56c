package relay

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/aki/nexus/internal/core/logger"
	"github.com/aki/nexus/internal/core/message"
	"github.com/aki/nexus/internal/core/queue"
	"github.com/aki/nexus/internal/core/schedule"
)

// MergeSidecars folds each -ocr.txt sidecar in dir into its archived result
// when the result has no received.text. Files that cannot be read or parsed
// are skipped. It returns the number of results updated.
func MergeSidecars(dir string, clock schedule.Clock, log logger.Logger) (int, error) {
	if clock == nil {
		clock = schedule.Real()
	}
	if log == nil {
		log = logger.Nop()
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*"+queue.TaskExt))
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(paths)

	updated := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Debug("skipping unreadable result", "path", path, "error", err)
			continue
		}
		doc, err := message.Parse(data)
		if err != nil {
			log.Debug("skipping malformed result", "path", path, "error", err)
			continue
		}
		if rec, ok := doc.Received(); ok && rec.Text != "" {
			continue
		}

		ocr, err := os.ReadFile(queue.SidecarPath(path))
		if err != nil {
			continue
		}

		doc.SetReceived(message.Received{Text: string(ocr), TS: clock.Now()})
		body, err := doc.Encode()
		if err != nil {
			log.Warn("failed to encode result", "path", path, "error", err)
			continue
		}
		if err := queue.Rewrite(path, body); err != nil {
			log.Warn("failed to rewrite result", "path", path, "error", err)
			continue
		}
		log.Debug("merged sidecar", "path", path)
		updated++
	}
	return updated, nil
}
