package queue

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockFile is the daemon lock inside the inbox directory
const LockFile = ".nexus.lock"

// ErrDaemonRunning is returned when another daemon holds the inbox lock
var ErrDaemonRunning = errors.New("another daemon is already running on this inbox")

// DaemonLock guards an inbox against a second daemon.
type DaemonLock struct {
	fl *flock.Flock
}

// LockDaemon takes the inbox lock, retrying until ctx is done.
func (s *Store) LockDaemon(ctx context.Context) (*DaemonLock, error) {
	fl := flock.New(filepath.Join(s.inbox, LockFile))

	locked, err := fl.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, ErrDaemonRunning
		}
		return nil, fmt.Errorf("failed to lock inbox: %w", err)
	}
	if !locked {
		return nil, ErrDaemonRunning
	}
	return &DaemonLock{fl: fl}, nil
}

// Unlock releases the inbox lock
func (l *DaemonLock) Unlock() error {
	return l.fl.Unlock()
}
