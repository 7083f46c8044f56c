// Package tail follows a destination's screen, redrawing it when it changes.
package tail

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"

	"github.com/aki/nexus/internal/core/schedule"
)

// maxReadFailures consecutive failed reads end Follow
const maxReadFailures = 3

// Source reads a destination's current screen
type Source interface {
	Snapshot(ctx context.Context, id string) (string, bool)
}

// Options configures the tail behavior
type Options struct {
	// PollInterval is how often to check for new output
	PollInterval time.Duration
	// Writer is where to write the output
	Writer io.Writer
	// MaxLines limits the number of lines to display; 0 fits the terminal
	MaxLines  int
	Scheduler *schedule.Scheduler
}

// DefaultOptions returns default tail options
func DefaultOptions() Options {
	return Options{
		PollInterval: 1 * time.Second,
	}
}

// Tailer streams one destination's screen
type Tailer struct {
	src   Source
	id    string
	opts  Options
	sched *schedule.Scheduler
}

// New creates a Tailer for the destination id
func New(src Source, id string, opts Options) *Tailer {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultOptions().PollInterval
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = schedule.New(nil)
	}
	return &Tailer{src: src, id: id, opts: opts, sched: sched}
}

// Follow redraws the screen whenever its content changes until ctx is done
// or the destination cannot be read several times in a row.
func (t *Tailer) Follow(ctx context.Context) error {
	var lastHash uint32
	drawn := false
	failures := 0

	for {
		text, ok := t.src.Snapshot(ctx, t.id)
		if !ok {
			failures++
			if failures >= maxReadFailures {
				return fmt.Errorf("failed to read %s %d times in a row", t.id, failures)
			}
		} else {
			failures = 0
			h := fnv.New32a()
			h.Write([]byte(text))
			if sum := h.Sum32(); !drawn || sum != lastHash {
				if err := t.redraw(text); err != nil {
					return err
				}
				lastHash, drawn = sum, true
			}
		}

		if err := t.sched.Sleep(ctx, t.opts.PollInterval); err != nil {
			return err
		}
	}
}

func (t *Tailer) redraw(text string) error {
	if t.opts.Writer == nil {
		return nil
	}
	// clear screen and move the cursor home
	if _, err := io.WriteString(t.opts.Writer, "\033[2J\033[H"); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := io.WriteString(t.opts.Writer, t.limit(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// limit keeps the last lines that fit the terminal
func (t *Tailer) limit(text string) string {
	maxLines := t.opts.MaxLines
	if maxLines == 0 {
		_, height, err := term.GetSize(os.Stdout.Fd())
		if err != nil || height < 10 {
			maxLines = 30
		} else {
			// two lines for the header
			maxLines = height - 2
		}
	}

	text = strings.TrimRight(text, "\n")
	lines := strings.Split(text, "\n")
	if len(lines) <= maxLines {
		return text + "\n"
	}
	header := fmt.Sprintf("... (showing last %d lines) ...\n", maxLines)
	return header + strings.Join(lines[len(lines)-maxLines:], "\n") + "\n"
}
