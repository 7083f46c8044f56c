package mcp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aki/nexus/internal/core/addressbook"
	"github.com/aki/nexus/internal/core/message"
	"github.com/aki/nexus/internal/core/queue"
)

// sendResult is returned by relay_send
type sendResult struct {
	TraceID string `json:"trace_id"`
	Task    string `json:"task"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// taskResult is returned by relay_result
type taskResult struct {
	TraceID  string `json:"trace_id"`
	Status   string `json:"status"`
	Path     string `json:"path"`
	Note     string `json:"note,omitempty"`
	Reply    string `json:"reply,omitempty"`
	TimedOut bool   `json:"timed_out,omitempty"`
	Error    any    `json:"error,omitempty"`
}

func (s *Server) handleRelaySend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	to, _ := args["to"].(string)
	if to = strings.TrimSpace(to); to == "" {
		return nil, MissingArgumentError("to")
	}
	text, _ := args["text"].(string)
	if strings.TrimSpace(text) == "" {
		return nil, MissingArgumentError("text")
	}
	from, _ := args["from"].(string)
	if from = strings.TrimSpace(from); from == "" {
		from = DefaultSender
	}

	if err := s.checkAddress(ctx, to); err != nil {
		return nil, err
	}

	traceID, _ := args["trace_id"].(string)
	if traceID == "" {
		traceID = queue.NewTraceID("mcp", s.clock.Now())
	}
	var timeout time.Duration
	if sec, ok := args["timeout_sec"].(float64); ok && sec > 0 {
		timeout = time.Duration(sec * float64(time.Second))
	}

	body, err := message.NewDocument(from, to, text, traceID, timeout).Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	path, err := s.store.Enqueue(queue.TaskName(traceID), body)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue message: %w", err)
	}

	s.log.Info("queued message", "trace", traceID, "to", to)
	return jsonResult(sendResult{
		TraceID: traceID,
		Task:    filepath.Base(path),
		From:    from,
		To:      to,
	})
}

// checkAddress rejects recipients the daemon would fail to resolve. An empty
// book is not checked since discovery may still find the pane at run time.
func (s *Server) checkAddress(ctx context.Context, name string) error {
	book, err := addressbook.Resolve(ctx, s.addresses)
	if err != nil {
		return fmt.Errorf("failed to load address book: %w", err)
	}
	if book.Len() == 0 {
		return nil
	}
	if _, err := book.Lookup(name); err != nil {
		var unresolved *addressbook.UnresolvedError
		if errors.As(err, &unresolved) {
			return UnknownAddressError(name, unresolved.Suggestion)
		}
		return err
	}
	return nil
}

func (s *Server) handleRelayQueue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}
	return jsonResult(snap)
}

func (s *Server) handleRelayResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	traceID, _ := args["trace_id"].(string)
	if traceID == "" {
		return nil, MissingArgumentError("trace_id")
	}

	result, err := s.findTask(traceID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, TraceNotFoundError(traceID)
	}
	return jsonResult(result)
}

func (s *Server) handleRelayAddresses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	book, err := addressbook.Resolve(ctx, s.addresses)
	if err != nil {
		return nil, fmt.Errorf("failed to load address book: %w", err)
	}
	return jsonResult(book.Entries())
}

// findTask looks for the trace id in the archives first, newest first, then
// in the inbox. It returns nil when nothing matches.
func (s *Server) findTask(traceID string) (*taskResult, error) {
	for _, status := range []queue.Status{queue.StatusOK, queue.StatusError} {
		paths, err := s.store.ListArchived(status)
		if err != nil {
			return nil, err
		}
		slices.Reverse(paths)
		for _, path := range paths {
			doc := s.readDocument(path)
			if doc == nil || doc.TraceID() != traceID {
				continue
			}
			if strings.HasSuffix(path, queue.ShutdownMarker+queue.TaskExt) {
				status = queue.StatusShutdown
			}
			return archivedResult(traceID, string(status), path, doc), nil
		}
	}

	inbox := []struct {
		status string
		list   func() ([]string, error)
	}{
		{"pending", s.store.ListPending},
		{"in_progress", s.store.ListInProgress},
		{"failed", s.store.ListFailed},
	}
	for _, group := range inbox {
		names, err := group.list()
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			path := filepath.Join(s.store.InboxDir(), name)
			if doc := s.readDocument(path); doc != nil && doc.TraceID() == traceID {
				return &taskResult{TraceID: traceID, Status: group.status, Path: path}, nil
			}
		}
	}
	return nil, nil
}

func archivedResult(traceID, status, path string, doc *message.Document) *taskResult {
	result := &taskResult{TraceID: traceID, Status: status, Path: path}
	if note, ok := doc.Field("nexus_log"); ok {
		result.Note, _ = note.(string)
	}
	if rec, ok := doc.Received(); ok {
		result.Reply = rec.Text
		if result.Reply == "" {
			result.Reply = rec.OCR
		}
		result.TimedOut = rec.TimedOut
	}
	if e, ok := doc.Field("error"); ok {
		result.Error = e
	}
	return result
}

func (s *Server) readDocument(path string) *message.Document {
	doc, err := message.ReadFile(path, s.legacy)
	if err != nil {
		return nil
	}
	return doc
}
