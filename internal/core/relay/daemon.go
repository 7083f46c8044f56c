// Package relay runs the daemon loop: take tasks from the queue one at a time,
// deliver them, capture the reply and archive the result.
package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/text/encoding"

	"github.com/aki/nexus/internal/core/addressbook"
	"github.com/aki/nexus/internal/core/logger"
	"github.com/aki/nexus/internal/core/queue"
	"github.com/aki/nexus/internal/core/schedule"
	"github.com/aki/nexus/internal/core/stabilizer"
	"github.com/aki/nexus/internal/core/surface"
)

// Options configures a Daemon.
type Options struct {
	Store *queue.Store
	// Book is used as-is when set; otherwise Addresses is resolved at Run
	Book       *addressbook.Book
	Addresses  addressbook.Options
	Gateway    *surface.Gateway
	Stabilizer *stabilizer.Stabilizer
	// Recoverer, when set, runs after every capture
	Recoverer surface.Recoverer
	Scheduler *schedule.Scheduler
	Logger    logger.Logger

	PollInterval time.Duration
	PostSendWait time.Duration
	// DefaultAddressKey receives replies when from cannot be resolved
	DefaultAddressKey string
	ReplyToSender     bool
	// Legacy decodes task files that are not valid UTF-8
	Legacy encoding.Encoding
	// Wake ends the idle wait early
	Wake <-chan struct{}
}

// Stats counts processed tasks by kind.
type Stats struct {
	Processed int          `json:"processed"`
	ByKind    map[Kind]int `json:"by_kind"`
}

// Daemon is the relay loop. It processes one task at a time.
type Daemon struct {
	opts  Options
	store *queue.Store
	sched *schedule.Scheduler
	log   logger.Logger

	bookOnce sync.Once
	book     *addressbook.Book
	bookErr  error

	mu    sync.Mutex
	stats Stats
}

// New creates a Daemon
func New(opts Options) *Daemon {
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.New(nil)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Daemon{
		opts:  opts,
		store: opts.Store,
		sched: opts.Scheduler,
		log:   opts.Logger,
		stats: Stats{ByKind: map[Kind]int{}},
	}
}

// Book resolves the address book on first use and returns it thereafter.
func (d *Daemon) Book(ctx context.Context) (*addressbook.Book, error) {
	d.bookOnce.Do(func() {
		if d.opts.Book != nil {
			d.book = d.opts.Book
			return
		}
		opts := d.opts.Addresses
		if opts.Logger == nil {
			opts.Logger = d.log
		}
		d.book, d.bookErr = addressbook.Resolve(ctx, opts)
	})
	return d.book, d.bookErr
}

// Stats returns a copy of the counters
func (d *Daemon) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := Stats{Processed: d.stats.Processed, ByKind: make(map[Kind]int, len(d.stats.ByKind))}
	for k, v := range d.stats.ByKind {
		out.ByKind[k] = v
	}
	return out
}

func (d *Daemon) record(r Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Processed++
	d.stats.ByKind[r.Kind]++
}

// Run polls the inbox until a shutdown task is processed or ctx is done.
// Cancellation is honored between tasks only.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.store.Init(); err != nil {
		return err
	}
	book, err := d.Book(ctx)
	if err != nil {
		return err
	}
	d.log.Info("relay started",
		"inbox", d.store.InboxDir(),
		"addresses", book.Len(),
		"poll_interval", d.opts.PollInterval,
	)

	for {
		results, err := d.ScanOnce(ctx)
		if err != nil {
			d.log.Error("inbox scan failed", "error", err)
		}
		for _, r := range results {
			if r.Shutdown {
				d.log.Info("shutdown requested", "task", r.Task)
				return nil
			}
		}
		if ctx.Err() != nil {
			d.log.Info("relay stopped")
			return nil
		}
		if len(results) > 0 {
			continue
		}

		if _, err := d.sched.Until(ctx, schedule.Wait{
			Interval: d.opts.PollInterval,
			Timeout:  d.opts.PollInterval,
			Wake:     d.opts.Wake,
		}, func(t schedule.Tick) bool {
			return t.Woken
		}); err != nil {
			d.log.Info("relay stopped")
			return nil
		}
	}
}

// ScanOnce processes every mature pending task in name order and returns
// their results. It stops early after a shutdown task or when ctx is done.
func (d *Daemon) ScanOnce(ctx context.Context) ([]Result, error) {
	book, err := d.Book(ctx)
	if err != nil {
		return nil, err
	}

	names, err := d.store.ListPending()
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, name := range names {
		if ctx.Err() != nil {
			break
		}

		task, err := d.store.ClaimMature(ctx, name)
		if err != nil {
			switch {
			case errors.Is(err, queue.ErrNotMature):
				d.log.Debug("task not mature yet", "task", name)
			case errors.Is(err, queue.ErrAlreadyClaimed):
				d.log.Debug("task claimed elsewhere", "task", name)
			default:
				d.log.Warn("claim failed", "task", name, "error", err)
			}
			continue
		}

		// a claimed task always runs to its archive
		r := d.process(context.WithoutCancel(ctx), book, task)
		d.record(r)
		results = append(results, r)
		if r.Shutdown {
			break
		}
	}
	return results, nil
}
