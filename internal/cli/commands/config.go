package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aki/nexus/internal/cli/ui"
	"github.com/aki/nexus/internal/core/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the daemon settings",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective settings",
		Long: `Display the settings the daemon would run with: defaults, then the settings
file, then NEXUS_* environment overrides.`,
		Example: `  # Show settings as YAML
  nexus config show

  # Show settings as JSON
  nexus config show --format json`,
		Args: cobra.NoArgs,
		RunE: runConfigShow,
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	if ui.GlobalFormatter.IsStructured() {
		return ui.GlobalFormatter.Output(settings)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	source := settings.Source
	if source == "" {
		source = "(defaults)"
	}
	ui.OutputLine("# source: %s", source)
	ui.OutputLine("%s", string(data))
	return nil
}

func newConfigValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the settings file",
		Long: `Validate the settings file against the settings schema and check the values
the schema cannot see, such as environment overrides.`,
		Args: cobra.NoArgs,
		RunE: runConfigValidate,
	}
	cmd.Flags().BoolP("verbose", "v", false, "Show the validated settings")
	return cmd
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")

	settings, err := config.Load(flagConfig)
	if err != nil {
		ui.Error("Settings validation failed: %v", err)
		return fmt.Errorf("invalid settings")
	}

	if settings.Source == "" {
		ui.Warning("No settings file found, defaults are valid")
	} else {
		ui.Success("Settings are valid: %s", settings.Source)
	}

	if verbose {
		ui.Info("Inbox:      %s", settings.InboxDir)
		ui.Info("Processed:  %s", settings.ProcessedDir)
		ui.Info("Addresses:  %s", settings.AddressesFile)
		ui.Info("Submit:     %s (%s)", settings.SubmitMode, settings.InputMethod)
		ui.Info("Timeout:    %s", settings.CaptureTimeout())
		ui.Info("OCR:        %t", settings.OCREnabled())
	}
	return nil
}
