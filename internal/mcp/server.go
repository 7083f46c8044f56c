// Package mcp exposes the relay queue to MCP clients over stdio.
package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/text/encoding"

	"github.com/aki/nexus/internal/core/addressbook"
	"github.com/aki/nexus/internal/core/logger"
	"github.com/aki/nexus/internal/core/queue"
	"github.com/aki/nexus/internal/core/schedule"
)

// DefaultSender is the from address for messages sent without one
const DefaultSender = "terminal"

// Options configures a Server.
type Options struct {
	Store *queue.Store
	// Addresses is used to check recipients before a message is enqueued
	Addresses addressbook.Options
	Clock     schedule.Clock
	// Legacy decodes task files that are not valid UTF-8, as the daemon does
	Legacy  encoding.Encoding
	Logger  logger.Logger
	Version string
}

// Server wraps an mcp-go server whose tools act on the relay inbox.
type Server struct {
	mcpServer *server.MCPServer
	store     *queue.Store
	addresses addressbook.Options
	clock     schedule.Clock
	legacy    encoding.Encoding
	log       logger.Logger
}

// NewServer creates the server and registers its tools and resources.
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.Clock == nil {
		opts.Clock = schedule.Real()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	mcpServer := server.NewMCPServer(
		"nexus",
		opts.Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithLogging(),
	)

	s := &Server{
		mcpServer: mcpServer,
		store:     opts.Store,
		addresses: opts.Addresses,
		clock:     opts.Clock,
		legacy:    opts.Legacy,
		log:       opts.Logger.With("component", "mcp"),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Start serves over stdio until the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("serving MCP over stdio", "inbox", s.store.InboxDir())
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("relay_send",
		mcp.WithDescription("Queue a message for delivery to a terminal pane. Returns the trace id used to fetch the reply with relay_result."),
		mcp.WithString("to",
			mcp.Description("Recipient address name from the address book"),
			mcp.Required(),
		),
		mcp.WithString("text",
			mcp.Description("Message text to type into the recipient's input"),
			mcp.Required(),
		),
		mcp.WithString("from",
			mcp.Description("Sender address that receives the reply (default: terminal)"),
		),
		mcp.WithString("trace_id",
			mcp.Description("Trace id to use instead of a generated one (optional)"),
		),
		mcp.WithNumber("timeout_sec",
			mcp.Description("Reply capture timeout in seconds for this message (optional)"),
		),
	), s.handleRelaySend)

	s.mcpServer.AddTool(mcp.NewTool("relay_queue",
		mcp.WithDescription("Show pending, in-progress and failed tasks plus archive counts"),
	), s.handleRelayQueue)

	s.mcpServer.AddTool(mcp.NewTool("relay_result",
		mcp.WithDescription("Look up a message by trace id and return its status and captured reply"),
		mcp.WithString("trace_id",
			mcp.Description("Trace id returned by relay_send"),
			mcp.Required(),
		),
	), s.handleRelayResult)

	s.mcpServer.AddTool(mcp.NewTool("relay_addresses",
		mcp.WithDescription("List the address book: names a message can be sent to"),
	), s.handleRelayAddresses)
}
