package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aki/nexus/internal/cli/ui"
	"github.com/aki/nexus/internal/core/message"
	"github.com/aki/nexus/internal/core/queue"
	"github.com/aki/nexus/internal/core/schedule"
)

// stdin is replaced in tests
var stdin io.Reader = os.Stdin

type sendOptions struct {
	to      string
	from    string
	file    string
	traceID string
	timeout time.Duration
}

func newSendCmd() *cobra.Command {
	var opts sendOptions

	cmd := &cobra.Command{
		Use:   "send [message]",
		Short: "Queue a message for delivery",
		Long: `Queue a message in the inbox for the running daemon to deliver.

The message can be provided as:
- Command line arguments
- From a file with -f/--file
- From stdin (when no message argument is provided)`,
		Example: `  # Send a simple message
  nexus send --to claude "Summarize the last test run"

  # Send from a file with a longer reply timeout
  nexus send --to claude --file prompt.md --timeout 5m

  # Send from stdin
  echo "ping" | nexus send --to claude`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.to, "to", "t", "", "Recipient address name (required)")
	cmd.Flags().StringVar(&opts.from, "from", "terminal", "Sender address that receives the reply")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read message from file")
	cmd.Flags().StringVar(&opts.traceID, "trace", "", "Trace id (default: generated)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Reply capture timeout for this message (default: from settings)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runSend(cmd *cobra.Command, args []string, opts sendOptions) error {
	text, err := readMessageText(args, opts.file)
	if err != nil {
		return err
	}
	text = strings.TrimRight(text, "\r\n")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message is empty")
	}

	traceID := opts.traceID
	if traceID == "" {
		traceID = queue.NewTraceID("cli", schedule.Real().Now())
	}
	doc := message.NewDocument(opts.from, opts.to, text, traceID, opts.timeout)

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
	ui.Success("Queued message for %s", opts.to)
	ui.OutputLine("  Trace: %s", traceID)
	ui.OutputLine("  Task:  %s", filepath.Base(path))
	return nil
}

// enqueueDocument writes doc to the configured inbox under its trace id
func enqueueDocument(doc *message.Document, traceID string) (string, error) {
	settings, err := loadSettings()
	if err != nil {
		return "", err
	}
	body, err := doc.Encode()
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}

	store := newStore(settings, schedule.New(nil), nil)
	return store.Enqueue(queue.TaskName(traceID), body)
}

func readMessageText(args []string, file string) (string, error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}

	if f, ok := stdin.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return "", fmt.Errorf("failed to stat stdin: %w", err)
		}
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			return "", fmt.Errorf("no message provided: use arguments, --file, or pipe input")
		}
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	return string(data), nil
}
