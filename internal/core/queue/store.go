// Package queue implements the durable on-disk task queue.
//
// Producers drop JSON files into the inbox directory. The daemon claims a file
// by renaming it to an in-progress name in the same directory; the rename is
// the only ownership signal, so no locks are involved in claiming. Finished
// tasks are written to processed/ok or processed/error before the in-progress
// file is removed.
package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aki/nexus/internal/core/logger"
	"github.com/aki/nexus/internal/core/schedule"
)

const (
	// TaskExt is the extension of pending task files
	TaskExt = ".json"
	// InProgressExt is appended to a claimed task's file name
	InProgressExt = ".processing"
	// FailedExt is appended when a claimed task could not be archived
	FailedExt = ".failed"
	// TempExt marks files still being written
	TempExt = ".tmp"
	// ShutdownMarker is inserted before TaskExt in a shutdown archive name
	ShutdownMarker = ".shutdown"
	// OCRSuffix is the sidecar suffix for optically recovered text
	OCRSuffix = "-ocr.txt"

	okDir    = "ok"
	errorDir = "error"
)

var (
	// ErrAlreadyClaimed is returned when the claim rename fails: another
	// actor took the file or it vanished
	ErrAlreadyClaimed = errors.New("task already claimed")
	// ErrNotMature is returned when a task file is empty or still growing
	ErrNotMature = errors.New("task file not mature")
)

// Options configures a Store.
type Options struct {
	InboxDir     string
	ProcessedDir string
	// MaturityWait is the interval between the two size samples of IsMature
	MaturityWait time.Duration
	Scheduler    *schedule.Scheduler
	Logger       logger.Logger
}

// Store is the task queue rooted at an inbox and a processed directory.
type Store struct {
	inbox        string
	processed    string
	maturityWait time.Duration
	sched        *schedule.Scheduler
	log          logger.Logger
}

// NewStore creates a Store. Call Init before use to create the directories.
func NewStore(opts Options) *Store {
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.New(nil)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Store{
		inbox:        opts.InboxDir,
		processed:    opts.ProcessedDir,
		maturityWait: opts.MaturityWait,
		sched:        opts.Scheduler,
		log:          opts.Logger,
	}
}

// Init creates the inbox and archive directories
func (s *Store) Init() error {
	for _, dir := range []string{s.inbox, s.OKDir(), s.ErrorDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// InboxDir returns the inbox path
func (s *Store) InboxDir() string { return s.inbox }

// OKDir returns the successful archive directory
func (s *Store) OKDir() string { return filepath.Join(s.processed, okDir) }

// ErrorDir returns the failed archive directory
func (s *Store) ErrorDir() string { return filepath.Join(s.processed, errorDir) }

// ListPending returns the names of pending task files, sorted by name.
// Temp files, in-progress files and failure markers are excluded.
func (s *Store) ListPending() ([]string, error) {
	return s.listInbox(func(name string) bool {
		return strings.HasSuffix(name, TaskExt) && !strings.HasPrefix(name, ".")
	})
}

// ListInProgress returns claimed files still present in the inbox. Outside a
// running daemon these are orphans left by a crash.
func (s *Store) ListInProgress() ([]string, error) {
	return s.listInbox(func(name string) bool { return strings.HasSuffix(name, InProgressExt) })
}

// ListFailed returns tasks whose archive write failed
func (s *Store) ListFailed() ([]string, error) {
	return s.listInbox(func(name string) bool { return strings.HasSuffix(name, FailedExt) })
}

func (s *Store) listInbox(keep func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(s.inbox)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if keep(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// IsMature samples the file size twice, MaturityWait apart, and reports
// whether both samples are equal and non-zero. A file that cannot be
// stat'ed is not mature.
func (s *Store) IsMature(ctx context.Context, name string) bool {
	path := filepath.Join(s.inbox, name)

	first, err := os.Stat(path)
	if err != nil {
		return false
	}
	if err := s.sched.Sleep(ctx, s.maturityWait); err != nil {
		return false
	}
	second, err := os.Stat(path)
	if err != nil {
		return false
	}
	return first.Size() > 0 && first.Size() == second.Size()
}

// Claim takes exclusive ownership of a pending task by renaming it to its
// in-progress name. Any rename failure means another actor won.
func (s *Store) Claim(name string) (*ClaimedTask, error) {
	src := filepath.Join(s.inbox, name)
	dst := src + InProgressExt

	// never clobber an orphan from a previous crash
	if _, err := os.Lstat(dst); err == nil {
		return nil, fmt.Errorf("%w: %s already has an in-progress file", ErrAlreadyClaimed, name)
	}

	if err := os.Rename(src, dst); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAlreadyClaimed, name, err)
	}

	s.log.Debug("claimed task", "task", name)
	return &ClaimedTask{
		Name:      name,
		Path:      dst,
		ClaimedAt: s.sched.Clock().Now(),
		state:     StateClaimed,
	}, nil
}

// ClaimMature runs the maturity check and claims the task if it passes.
func (s *Store) ClaimMature(ctx context.Context, name string) (*ClaimedTask, error) {
	if !s.IsMature(ctx, name) {
		return nil, fmt.Errorf("%w: %s", ErrNotMature, name)
	}
	return s.Claim(name)
}

// Snapshot summarizes the queue for inspection commands.
type Snapshot struct {
	Pending    []string `json:"pending" yaml:"pending"`
	InProgress []string `json:"in_progress" yaml:"in_progress"`
	Failed     []string `json:"failed" yaml:"failed"`
	OK         int      `json:"ok" yaml:"ok"`
	Error      int      `json:"error" yaml:"error"`
}

// Snapshot lists the inbox and counts archived results.
func (s *Store) Snapshot() (*Snapshot, error) {
	var snap Snapshot
	var err error
	if snap.Pending, err = s.ListPending(); err != nil {
		return nil, err
	}
	if snap.InProgress, err = s.ListInProgress(); err != nil {
		return nil, err
	}
	if snap.Failed, err = s.ListFailed(); err != nil {
		return nil, err
	}

	ok, err := s.ListArchived(StatusOK)
	if err != nil {
		return nil, err
	}
	failed, err := s.ListArchived(StatusError)
	if err != nil {
		return nil, err
	}
	snap.OK, snap.Error = len(ok), len(failed)
	return &snap, nil
}

// ListArchived returns archive paths for a status, newest name last.
// Shutdown archives are listed with StatusOK.
func (s *Store) ListArchived(status Status) ([]string, error) {
	dir := s.OKDir()
	if status == StatusError {
		dir = s.ErrorDir()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), TaskExt) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
