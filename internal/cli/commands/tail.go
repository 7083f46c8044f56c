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

	"github.com/aki/nexus/internal/adapters/tmux"
	"github.com/aki/nexus/internal/core/addressbook"
	"github.com/aki/nexus/internal/core/schedule"
	"github.com/aki/nexus/internal/core/surface"
	"github.com/aki/nexus/internal/core/tail"
)

func newTailCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "tail <address>",
		Short: "Follow the screen of an address",
		Long: `Follow what the daemon would capture from an address, redrawing whenever the
screen changes. Stop with Ctrl+C.`,
		Example: `  # Watch the claude pane
  nexus tail claude`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTail(cmd, args[0], interval)
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "How often to read the screen")
	return cmd
}

func runTail(cmd *cobra.Command, name string, interval time.Duration) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	log := CreateQuietLogger(cmd.ErrOrStderr())

	adapter, err := newTmuxAdapter()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	book, err := addressbook.Resolve(ctx, addressOptions(settings, adapter, log))
	if err != nil {
		return err
	}
	entry, err := book.Lookup(name)
	if err != nil {
		return err
	}

	sched := schedule.New(nil)
	gateway := surface.NewGateway(tmux.NewSurface(adapter, sched), surface.SendOptions{}, log)
	tailer := tail.New(gateway, entry.Identifier, tail.Options{
		PollInterval: interval,
		Writer:       cmd.OutOrStdout(),
		Scheduler:    sched,
	})

	if err := tailer.Follow(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("tail %s: %w", name, err)
	}
	return nil
}
