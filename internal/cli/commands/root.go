// Package commands provides CLI command implementations for nexus.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/aki/nexus/internal/cli/ui"
)

// Global flags
var (
	flagConfig string
	flagFormat string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nexus",
		Short: "Relay messages between terminal panes through a file inbox",
		Long: `Nexus watches an inbox directory for message files, types each message into
the addressed terminal pane, waits for the reply to settle and archives the
message together with the captured reply.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			format, err := ui.ParseFormat(flagFormat)
			if err != nil {
				return err
			}
			return ui.SetGlobalFormatter(format)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Settings file (default config/settings.json)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "pretty", "Output format (pretty, json, yaml)")
	RegisterLoggerFlags(rootCmd)

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newStopCmd())
	rootCmd.AddCommand(newQueueCmd())
	rootCmd.AddCommand(newAddressesCmd())
	rootCmd.AddCommand(newTailCmd())
	rootCmd.AddCommand(newMergeOCRCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}
