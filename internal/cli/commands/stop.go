package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aki/nexus/internal/cli/ui"
	"github.com/aki/nexus/internal/core/message"
	"github.com/aki/nexus/internal/core/queue"
	"github.com/aki/nexus/internal/core/schedule"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Ask the running daemon to exit",
		Long: `Queue a NEXUS-END control task. The daemon archives it and exits once it
reaches it, so tasks queued earlier are still delivered.`,
		Args: cobra.NoArgs,
		RunE: runStop,
	}
}

func runStop(cmd *cobra.Command, args []string) error {
	traceID := queue.NewTraceID("stop", schedule.Real().Now())
	doc := message.NewDocument("terminal", "terminal", message.ShutdownPayload, traceID, 0)

	path, err := enqueueDocument(doc, traceID)
	if err != nil {
		return err
	}

	if ui.GlobalFormatter.IsStructured() {
		return ui.GlobalFormatter.Output(map[string]string{
			"trace_id": traceID,
			"task":     path,
		})
	}
	ui.Success("Shutdown requested")
	ui.OutputLine("  Task: %s", filepath.Base(path))
	return nil
}
