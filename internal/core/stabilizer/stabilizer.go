// Package stabilizer decides when a destination has finished replying.
//
// Destinations give no end-of-reply signal, so completion is inferred from
// snapshots of the visible text: the text must first grow past a noise floor
// over its baseline, then stay byte-identical for a stability window. This is
// a heuristic. A reply that pauses longer than the window is cut short, and a
// reply that never settles is returned as-is when the timeout passes.
package stabilizer

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aki/nexus/internal/core/logger"
	"github.com/aki/nexus/internal/core/schedule"
)

// Status is how a capture session ended.
type Status int

const (
	// Captured means the text grew and then held still for the stability window
	Captured Status = iota
	// TimedOut means the timeout passed first; the result holds the last text seen
	TimedOut
	// ConnectFailed means the baseline could not be read
	ConnectFailed
)

func (s Status) String() string {
	switch s {
	case Captured:
		return "captured"
	case TimedOut:
		return "timed-out"
	case ConnectFailed:
		return "connect-failed"
	default:
		return "unknown"
	}
}

// Config holds the four thresholds plus result shaping.
type Config struct {
	// MinGrowth is the number of characters the text must grow by over the
	// baseline before a reply is considered to have started
	MinGrowth     int
	StabilityWait time.Duration
	PollInterval  time.Duration
	Timeout       time.Duration
	// SuffixOnly returns only the text after the baseline when the baseline
	// is still a prefix of it
	SuffixOnly bool
}

// Source reads a destination's text; ok is false when the read failed.
type Source interface {
	Snapshot(ctx context.Context, id string) (text string, ok bool)
}

// Result is the outcome of one session.
type Result struct {
	Status Status
	Text   string
	// Growth is the character count gained over the baseline
	Growth  int
	Elapsed time.Duration
	Polls   int
}

// Stabilizer runs capture sessions.
type Stabilizer struct {
	cfg   Config
	sched *schedule.Scheduler
	log   logger.Logger
}

// New creates a Stabilizer
func New(cfg Config, sched *schedule.Scheduler, log logger.Logger) *Stabilizer {
	if sched == nil {
		sched = schedule.New(nil)
	}
	if log == nil {
		log = logger.Nop()
	}
	if cfg.MinGrowth < 1 {
		cfg.MinGrowth = 1
	}
	return &Stabilizer{cfg: cfg, sched: sched, log: log}
}

// Config returns the thresholds in use
func (s *Stabilizer) Config() Config { return s.cfg }

// WithTimeout returns a copy of s with a different overall timeout
func (s *Stabilizer) WithTimeout(d time.Duration) *Stabilizer {
	c := *s
	c.cfg.Timeout = d
	return &c
}

type session struct {
	cfg           Config
	baseline      string
	baselineChars int
	last          string
	growing       bool
	stable        time.Duration
	polls         int
}

// poll feeds one snapshot and reports whether the text has stabilized
func (ss *session) poll(cur string, ok bool) bool {
	ss.polls++
	if !ok {
		// an unreadable snapshot proves nothing about stability
		ss.stable = 0
		return false
	}

	if !ss.growing {
		if utf8.RuneCountInString(cur) >= ss.baselineChars+ss.cfg.MinGrowth && cur != ss.last {
			ss.growing = true
			ss.stable = 0
		}
		ss.last = cur
		return false
	}

	if cur == ss.last {
		ss.stable += ss.cfg.PollInterval
		return ss.stable >= ss.cfg.StabilityWait
	}
	ss.stable = 0
	ss.last = cur
	return false
}

func (ss *session) result(status Status, elapsed time.Duration) Result {
	text := ss.last
	if ss.cfg.SuffixOnly && strings.HasPrefix(text, ss.baseline) {
		text = text[len(ss.baseline):]
	}
	return Result{
		Status:  status,
		Text:    text,
		Growth:  utf8.RuneCountInString(ss.last) - ss.baselineChars,
		Elapsed: elapsed,
		Polls:   ss.polls,
	}
}

// Capture takes a baseline from src and polls until the reply stabilizes or
// the timeout passes. The returned error is non-nil only when ctx ended the
// session; the Result then holds the last text seen.
func (s *Stabilizer) Capture(ctx context.Context, src Source, id string) (Result, error) {
	log := s.log.With("identifier", id)

	baseline, ok := src.Snapshot(ctx, id)
	if !ok {
		log.Warn("could not read baseline")
		return Result{Status: ConnectFailed}, nil
	}

	ss := &session{
		cfg:           s.cfg,
		baseline:      baseline,
		baselineChars: utf8.RuneCountInString(baseline),
		last:          baseline,
	}
	log.Debug("capture started", "baseline_chars", ss.baselineChars, "timeout", s.cfg.Timeout)

	var elapsed time.Duration
	done, err := s.sched.Until(ctx, schedule.Wait{
		Interval: s.cfg.PollInterval,
		Timeout:  s.cfg.Timeout,
	}, func(tick schedule.Tick) bool {
		elapsed = tick.Elapsed
		cur, ok := src.Snapshot(ctx, id)
		return ss.poll(cur, ok)
	})

	if err != nil {
		return ss.result(TimedOut, elapsed), err
	}
	if !done {
		r := ss.result(TimedOut, elapsed)
		log.Info("capture timed out", "growth", r.Growth, "polls", r.Polls)
		return r, nil
	}

	r := ss.result(Captured, elapsed)
	log.Info("capture stabilized", "growth", r.Growth, "polls", r.Polls, "elapsed", r.Elapsed)
	return r, nil
}
