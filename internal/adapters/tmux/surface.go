package tmux

import (
	"context"
	"fmt"

	"github.com/aki/nexus/internal/core/schedule"
	"github.com/aki/nexus/internal/core/surface"
)

// Surface implements surface.IO on top of an Adapter. Identifiers are tmux
// targets, normally pane ids.
type Surface struct {
	adapter Adapter
	sched   *schedule.Scheduler
}

// NewSurface creates a Surface. A nil scheduler uses the wall clock.
func NewSurface(adapter Adapter, sched *schedule.Scheduler) *Surface {
	if sched == nil {
		sched = schedule.New(nil)
	}
	return &Surface{adapter: adapter, sched: sched}
}

// Send injects text with the configured input method, waits the pre-submit
// delay and presses the submit key(s).
func (s *Surface) Send(ctx context.Context, id, text string, opts surface.SendOptions) error {
	if err := s.input(ctx, id, text, opts); err != nil {
		return err
	}
	if err := s.sched.Sleep(ctx, opts.PreSubmitDelay); err != nil {
		return err
	}
	return s.submit(ctx, id, opts.SubmitMode)
}

func (s *Surface) input(ctx context.Context, id, text string, opts surface.SendOptions) error {
	if opts.InputMethod != surface.InputType {
		return s.adapter.PasteText(ctx, id, text)
	}
	if opts.TypePause <= 0 {
		return s.adapter.SendLiteral(ctx, id, text)
	}

	for _, r := range text {
		if err := s.adapter.SendLiteral(ctx, id, string(r)); err != nil {
			return err
		}
		if err := s.sched.Sleep(ctx, opts.TypePause); err != nil {
			return err
		}
	}
	return nil
}

func (s *Surface) submit(ctx context.Context, id string, mode surface.SubmitMode) error {
	var keys []string
	switch mode {
	case surface.SubmitSingle, "":
		keys = []string{"Enter"}
	case surface.SubmitDoubled:
		keys = []string{"Enter", "Enter"}
	case surface.SubmitModified:
		keys = []string{"C-Enter"}
	default:
		return fmt.Errorf("unknown submit mode %q", mode)
	}

	for _, key := range keys {
		if err := s.adapter.SendKey(ctx, id, key); err != nil {
			return err
		}
	}
	return nil
}

// Read captures the pane's visible text
func (s *Surface) Read(ctx context.Context, id string) (string, error) {
	return s.adapter.CapturePane(ctx, id)
}
