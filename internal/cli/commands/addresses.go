package commands

import (
	"github.com/spf13/cobra"

	"github.com/aki/nexus/internal/adapters/tmux"
	"github.com/aki/nexus/internal/cli/ui"
	"github.com/aki/nexus/internal/core/addressbook"
)

func newAddressesCmd() *cobra.Command {
	var discover bool

	cmd := &cobra.Command{
		Use:     "addresses",
		Aliases: []string{"addr"},
		Short:   "Show the resolved address book",
		Long: `Show the address book as the daemon would resolve it at start: the static
address file merged with panes discovered in tmux when auto detection is on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddresses(cmd, discover)
		},
	}

	cmd.Flags().BoolVar(&discover, "discover", false, "Discover tmux panes even if auto_detect_addresses is off")
	return cmd
}

func runAddresses(cmd *cobra.Command, discover bool) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if discover {
		settings.AutoDetectAddresses = true
	}

	log := CreateQuietLogger(cmd.ErrOrStderr())

	var adapter tmux.Adapter
	if settings.AutoDetectAddresses {
		a, err := newTmuxAdapter()
		if err != nil {
			log.Warn("skipping discovery", "error", err)
		} else {
			adapter = a
		}
	}

	book, err := addressbook.Resolve(cmd.Context(), addressOptions(settings, adapter, log))
	if err != nil {
		return err
	}

	if ui.GlobalFormatter.IsStructured() {
		return ui.GlobalFormatter.Output(book.Entries())
	}
	ui.PrintAddresses(book)
	return nil
}
