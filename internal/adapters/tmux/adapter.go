// Package tmux provides a tmux adapter for reaching destinations that run in
// tmux panes.
package tmux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	pasteBuffer = "nexus"
	fieldSep    = "\t"
	paneFormat  = "#{pane_id}\t#{session_name}\t#{window_name}\t#{pane_title}\t#{pane_pid}\t#{pane_dead}\t#{@nexus_address}"
)

// RealAdapter provides real tmux operations
type RealAdapter struct {
	tmuxPath string
}

// NewAdapter creates a new tmux adapter
func NewAdapter() (Adapter, error) {
	tmuxPath, err := exec.LookPath("tmux")
	if err != nil {
		return nil, fmt.Errorf("tmux not found: %w", err)
	}

	return &RealAdapter{
		tmuxPath: tmuxPath,
	}, nil
}

// IsAvailable checks if tmux is available on the system
func (a *RealAdapter) IsAvailable() bool {
	cmd := exec.Command(a.tmuxPath, "-V")
	return cmd.Run() == nil
}

func (a *RealAdapter) run(ctx context.Context, stdin string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, a.tmuxPath, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tmux %s: %w (stderr: %s)", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// SendLiteral types text into a pane. The -l flag keeps tmux from expanding
// key names inside the text.
func (a *RealAdapter) SendLiteral(ctx context.Context, target, text string) error {
	if text == "" {
		return nil
	}
	_, err := a.run(ctx, "", "send-keys", "-t", target, "-l", text)
	return err
}

// SendKey sends a single named key
func (a *RealAdapter) SendKey(ctx context.Context, target, key string) error {
	_, err := a.run(ctx, "", "send-keys", "-t", target, key)
	return err
}

// PasteText pastes text as one bracketed paste, so embedded newlines are not
// taken as submits.
func (a *RealAdapter) PasteText(ctx context.Context, target, text string) error {
	if text == "" {
		return nil
	}
	if _, err := a.run(ctx, text, "load-buffer", "-b", pasteBuffer, "-"); err != nil {
		return err
	}
	_, err := a.run(ctx, "", "paste-buffer", "-d", "-p", "-b", pasteBuffer, "-t", target)
	return err
}

// CapturePane captures the visible content of a pane
func (a *RealAdapter) CapturePane(ctx context.Context, target string) (string, error) {
	// -p: print to stdout
	// -J: join wrapped lines so rewrapping on resize does not look like growth
	out, err := a.run(ctx, "", "capture-pane", "-t", target, "-p", "-J")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ListPanes lists every pane on the server
func (a *RealAdapter) ListPanes(ctx context.Context) ([]Pane, error) {
	out, err := a.run(ctx, "", "list-panes", "-a", "-F", paneFormat)
	if err != nil {
		// no server running
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return []Pane{}, nil
		}
		return nil, err
	}
	return parsePanes(string(out))
}

func parsePanes(output string) ([]Pane, error) {
	panes := []Pane{}
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, fieldSep)
		if len(fields) < 6 {
			return nil, fmt.Errorf("unexpected list-panes line: %q", line)
		}

		pid, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, fmt.Errorf("invalid pane pid %q: %w", fields[4], err)
		}
		p := Pane{
			ID:         fields[0],
			Session:    fields[1],
			WindowName: fields[2],
			Title:      fields[3],
			PID:        pid,
			Dead:       fields[5] == "1",
		}
		if len(fields) > 6 {
			p.Address = strings.TrimSpace(fields[6])
		}
		panes = append(panes, p)
	}
	return panes, nil
}
