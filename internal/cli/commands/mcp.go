package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aki/nexus/internal/adapters/tmux"
	"github.com/aki/nexus/internal/core/message"
	"github.com/aki/nexus/internal/core/schedule"
	"github.com/aki/nexus/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server",
		Long: `Start a Model Context Protocol server on stdio. Its tools queue messages for
the daemon and read back their results; the daemon must run separately.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	// stdout carries the protocol, so logs go to stderr
	log, err := CreateLogger(os.Stderr)
	if err != nil {
		return err
	}

	// recipients found by discovery must pass the address check too
	var adapter tmux.Adapter
	if settings.AutoDetectAddresses {
		if a, err := newTmuxAdapter(); err == nil {
			adapter = a
		}
	}

	legacy, err := message.LegacyEncoding(settings.LegacyEncoding)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(mcp.Options{
		Store:     newStore(settings, nil, log),
		Addresses: addressOptions(settings, adapter, log),
		Clock:     schedule.Real(),
		Legacy:    legacy,
		Logger:    log,
		Version:   Version,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if err := server.Start(cmd.Context()); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("MCP server stopped")
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
