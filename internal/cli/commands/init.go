package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aki/nexus/internal/cli/ui"
	"github.com/aki/nexus/internal/core/addressbook"
	"github.com/aki/nexus/internal/core/config"
)

// sampleAddresses seeds the address file template written by init
var sampleAddresses = map[string]addressbook.Entry{
	"terminal": {Identifier: "%0", DisplayName: "Operator terminal"},
	"claude":   {Identifier: "%1", DisplayName: "Claude"},
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a settings file and the queue directories",
		Long: `Write default settings, an address file template and create the inbox and
processed directories in the current directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing settings file")
	return cmd
}

func runInit(cmd *cobra.Command, force bool) error {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath
	}

	if force {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	settings := config.Default()
	if err := settings.WriteFile(path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists. Use --force to overwrite", path)
		}
		return fmt.Errorf("failed to write settings: %w", err)
	}

	addrTemplate := settings.AddressesFile + addressbook.ExampleSuffix
	wroteTemplate, err := writeAddressTemplate(addrTemplate)
	if err != nil {
		return err
	}

	if err := newStore(settings, nil, nil).Init(); err != nil {
		return err
	}

	ui.Success("Nexus initialized")
	ui.OutputLine("  Settings:  %s", path)
	if wroteTemplate {
		ui.OutputLine("  Addresses: %s", addrTemplate)
	}
	ui.OutputLine("  Inbox:     %s", settings.InboxDir)
	ui.OutputLine("  Processed: %s", settings.ProcessedDir)
	ui.OutputLine("\nRun 'nexus run' to start the daemon")
	return nil
}

// writeAddressTemplate writes the sample address file unless one exists
func writeAddressTemplate(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	data, err := json.MarshalIndent(sampleAddresses, "", "  ")
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create address directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return false, fmt.Errorf("failed to write address template: %w", err)
	}
	return true, nil
}
