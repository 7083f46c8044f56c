package tmux

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipIfNoTmux(t *testing.T) Adapter {
	adapter, err := NewAdapter()
	if err != nil || !adapter.IsAvailable() {
		t.Skip("tmux not available on this system")
	}
	return adapter
}

func TestParsePanes(t *testing.T) {
	out := "%0\tmain\tshell\thost\t100\t0\t\n" +
		"%3\tmain\tclaude\tclaude: thinking\t200\t0\tclaude\n" +
		"\n" +
		"%4\twork\tlogs\tlogs\t300\t1\t\n"

	panes, err := parsePanes(out)
	require.NoError(t, err)
	require.Len(t, panes, 3)

	assert.Equal(t, Pane{ID: "%0", Session: "main", WindowName: "shell", Title: "host", PID: 100}, panes[0])
	assert.Equal(t, "claude", panes[1].Address)
	assert.Equal(t, "main:claude", panes[1].Target())
	assert.True(t, panes[2].Dead)
}

func TestParsePanesErrors(t *testing.T) {
	_, err := parsePanes("%0\tmain\n")
	assert.Error(t, err)

	_, err = parsePanes("%0\tmain\tw\tt\tnotapid\t0\n")
	assert.Error(t, err)

	panes, err := parsePanes("")
	require.NoError(t, err)
	assert.Empty(t, panes)
}

func TestAdapter_SendAndCapture(t *testing.T) {
	adapter := skipIfNoTmux(t)
	ctx := context.Background()

	session := fmt.Sprintf("nexus-test-%d", time.Now().UnixNano())
	if err := exec.Command("tmux", "new-session", "-d", "-s", session, "-x", "120", "-y", "40").Run(); err != nil {
		t.Skipf("cannot start tmux session: %v", err)
	}
	defer func() { _ = exec.Command("tmux", "kill-session", "-t", session).Run() }()

	panes, err := adapter.ListPanes(ctx)
	require.NoError(t, err)

	var target string
	for _, p := range panes {
		if p.Session == session {
			target = p.ID
		}
	}
	require.NotEmpty(t, target, "new session pane should be listed")

	// the shell may take a few seconds to print its first prompt
	_, ready := waitForScreen(t, adapter, target, func(screen string) bool {
		return strings.TrimSpace(screen) != ""
	})
	require.True(t, ready, "shell prompt never appeared")

	require.NoError(t, adapter.SendLiteral(ctx, target, "echo 'hello from nexus'"))
	require.NoError(t, adapter.SendKey(ctx, target, "Enter"))

	screen, _ := waitForScreen(t, adapter, target, func(screen string) bool {
		return strings.Count(screen, "hello from nexus") >= 2
	})
	assert.GreaterOrEqual(t, strings.Count(screen, "hello from nexus"), 2, "command and its output should be visible")
}

// waitForScreen polls the pane until done accepts its content or a generous
// deadline passes.
func waitForScreen(t *testing.T, adapter Adapter, target string, done func(string) bool) (string, bool) {
	t.Helper()
	deadline := time.Now().Add(15 * time.Second)
	var screen string
	for time.Now().Before(deadline) {
		var err error
		screen, err = adapter.CapturePane(context.Background(), target)
		require.NoError(t, err)
		if done(screen) {
			return screen, true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return screen, false
}

func TestAdapter_CaptureMissingPane(t *testing.T) {
	adapter := skipIfNoTmux(t)

	_, err := adapter.CapturePane(context.Background(), "nexus-no-such-session:0")
	assert.Error(t, err)
}
