package commands

import (
	"github.com/spf13/cobra"

	"github.com/aki/nexus/internal/cli/ui"
	"github.com/aki/nexus/internal/core/schedule"
)

func newQueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "queue",
		Aliases: []string{"q", "status"},
		Short:   "Show the inbox and archive state",
		Args:    cobra.NoArgs,
		RunE:    runQueue,
	}
}

func runQueue(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	store := newStore(settings, schedule.New(nil), nil)
	if err := store.Init(); err != nil {
		return err
	}
	snap, err := store.Snapshot()
	if err != nil {
		return err
	}

	if ui.GlobalFormatter.IsStructured() {
		return ui.GlobalFormatter.Output(snap)
	}
	ui.PrintQueue(snap)
	return nil
}
