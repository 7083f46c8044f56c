package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aki/nexus/internal/cli/ui"
	"github.com/aki/nexus/internal/core/logger"
	"github.com/aki/nexus/internal/core/queue"
	"github.com/aki/nexus/internal/core/relay"
	"github.com/aki/nexus/internal/core/schedule"
)

// lockWait bounds how long run waits for another daemon to release the inbox
const lockWait = time.Second

func newRunCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the relay daemon",
		Long: `Run the relay daemon in the foreground.

The daemon processes inbox tasks one at a time until a task carrying the
NEXUS-END payload is processed or the process receives SIGINT/SIGTERM.
An interrupted daemon finishes the task it is working on before exiting.`,
		Example: `  # Run with config/settings.json
  nexus run

  # Process what is in the inbox now and exit
  nexus run --once --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Process the pending tasks once and exit")
	return cmd
}

func runDaemon(cmd *cobra.Command, once bool) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	log, err := CreateLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if settings.Source == "" {
		log.Warn("no settings file found, using defaults")
	}

	adapter, err := newTmuxAdapter()
	if err != nil {
		return err
	}
	if !adapter.IsAvailable() {
		return fmt.Errorf("tmux is not available")
	}

	sched := schedule.New(nil)
	store := newStore(settings, sched, log)
	if err := store.Init(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	lockCtx, lockCancel := context.WithTimeout(ctx, lockWait)
	lock, err := store.LockDaemon(lockCtx)
	lockCancel()
	if err != nil {
		if errors.Is(err, queue.ErrDaemonRunning) {
			return fmt.Errorf("%w (inbox %s)", err, store.InboxDir())
		}
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("failed to release inbox lock", "error", err)
		}
	}()

	if once {
		daemon, err := buildDaemon(settings, store, adapter, sched, log, nil)
		if err != nil {
			return err
		}
		results, err := daemon.ScanOnce(ctx)
		if err != nil {
			return err
		}
		if ui.GlobalFormatter.IsStructured() {
			if results == nil {
				results = []relay.Result{}
			}
			return ui.GlobalFormatter.Output(results)
		}
		ui.PrintResults(results)
		return nil
	}

	var wake <-chan struct{}
	if settings.WatchInbox {
		if wake, err = store.Watch(ctx); err != nil {
			log.Warn("inbox watch unavailable, polling only", "error", err)
		}
	}
	daemon, err := buildDaemon(settings, store, adapter, sched, log, wake)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return handleSignals(gctx, cancel, log)
	})
	g.Go(func() error {
		defer cancel()
		return daemon.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	stats := daemon.Stats()
	log.Info("relay exited", "processed", stats.Processed)
	return nil
}

// handleSignals cancels the daemon on SIGINT/SIGTERM. It returns when ctx is done.
func handleSignals(ctx context.Context, cancel context.CancelFunc, log logger.Logger) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		log.Info("received signal, stopping after the current task", "signal", sig.String())
		cancel()
	case <-ctx.Done():
	}
	return nil
}
