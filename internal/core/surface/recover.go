package surface

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Recoverer extracts text from a destination by other means than Read,
// typically optical recognition of a screenshot.
type Recoverer interface {
	Recover(ctx context.Context, id string) (string, error)
}

// IdentifierPlaceholder is replaced by the destination identifier in a
// CommandRecoverer's arguments
const IdentifierPlaceholder = "{id}"

// CommandRecoverer runs an external command and uses its stdout as the
// recovered text.
type CommandRecoverer struct {
	args    []string
	timeout time.Duration
}

// NewCommandRecoverer parses a whitespace separated command line. Arguments
// equal to or containing {id} get the destination identifier.
func NewCommandRecoverer(command string, timeout time.Duration) (*CommandRecoverer, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, errors.New("empty recovery command")
	}
	return &CommandRecoverer{args: args, timeout: timeout}, nil
}

// Recover runs the command for id
func (r *CommandRecoverer) Recover(ctx context.Context, id string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := make([]string, len(r.args))
	for i, a := range r.args {
		args[i] = strings.ReplaceAll(a, IdentifierPlaceholder, id)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("recovery command failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
