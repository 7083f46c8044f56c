package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

const queueResourceURI = "nexus://queue"

func (s *Server) registerResources() {
	queueResource := mcp.NewResource(
		queueResourceURI,
		"Relay Queue",
		mcp.WithResourceDescription("Inbox and archive state of the relay"),
		mcp.WithMIMEType("application/json"),
	)
	s.mcpServer.AddResource(queueResource, s.handleQueueResource)
}

func (s *Server) handleQueueResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}

	jsonData, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal queue: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// jsonResult renders v as an indented JSON text result
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(jsonData),
			},
		},
	}, nil
}
