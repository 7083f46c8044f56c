package queue

import (
	"os"
	"strings"
	"time"
)

// Status is the terminal disposition of a task.
type Status string

const (
	StatusOK       Status = "ok"
	StatusError    Status = "error"
	StatusShutdown Status = "shutdown"
)

// State is where a claimed task is in its lifecycle. There is no way back to
// pending once claimed.
type State int

const (
	StatePending State = iota
	StateClaimed
	StateArchivedOK
	StateArchivedError
	StateShutdown
	// StateFailed means the archive write failed and the task was set aside
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateClaimed:
		return "claimed"
	case StateArchivedOK:
		return "archived-ok"
	case StateArchivedError:
		return "archived-error"
	case StateShutdown:
		return "shutdown"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ClaimedTask is a task file owned by the daemon.
type ClaimedTask struct {
	// Name is the original inbox file name
	Name string
	// Path is the current in-progress path
	Path      string
	ClaimedAt time.Time
	state     State
}

// State returns the task's lifecycle state
func (t *ClaimedTask) State() State { return t.state }

// Stem is the file name without the task extension
func (t *ClaimedTask) Stem() string {
	return strings.TrimSuffix(t.Name, TaskExt)
}

// ReadRaw returns the in-progress file's bytes
func (t *ClaimedTask) ReadRaw() ([]byte, error) {
	return os.ReadFile(t.Path)
}
