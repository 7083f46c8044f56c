package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/aki/nexus/internal/cli/ui"
)

// Version information - these will be set at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display detailed version information about nexus",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ui.GlobalFormatter.IsStructured() {
				return ui.GlobalFormatter.Output(map[string]string{
					"version":   Version,
					"gitCommit": GitCommit,
					"buildDate": BuildDate,
					"goVersion": runtime.Version(),
					"os":        runtime.GOOS,
					"arch":      runtime.GOARCH,
				})
			}

			ui.OutputLine("nexus version %s", Version)
			ui.OutputLine("  Git commit: %s", GitCommit)
			ui.OutputLine("  Build date: %s", BuildDate)
			ui.OutputLine("  Go version: %s", runtime.Version())
			ui.OutputLine("  OS/Arch:    %s/%s", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
