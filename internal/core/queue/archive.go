package queue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const archiveTimeLayout = "20060102-150405"

// ArchiveError is returned when the result could not be written. The task
// has been renamed to FailedPath instead, unless that also failed.
type ArchiveError struct {
	Task       string
	FailedPath string
	Err        error
}

func (e *ArchiveError) Error() string {
	if e.FailedPath == "" {
		return fmt.Sprintf("failed to archive %s (in-progress file kept): %v", e.Task, e.Err)
	}
	return fmt.Sprintf("failed to archive %s, moved to %s: %v", e.Task, filepath.Base(e.FailedPath), e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// Archive writes body as the task's result and then removes the in-progress
// file. The result is fully written and renamed into place before anything
// is deleted. If writing fails the in-progress file is renamed to a .failed
// marker and an *ArchiveError is returned.
func (s *Store) Archive(task *ClaimedTask, status Status, note string, body []byte) (string, error) {
	if task.state != StateClaimed {
		return "", fmt.Errorf("task %s is %s, not claimed", task.Name, task.state)
	}

	dst, err := s.writeResult(task, status, note, body)
	if err != nil {
		return "", s.setAside(task, err)
	}

	if err := os.Remove(task.Path); err != nil && !os.IsNotExist(err) {
		// the result is durable; a leftover in-progress file is only noise
		s.log.Warn("failed to remove in-progress file", "task", task.Name, "error", err)
	}

	switch status {
	case StatusOK:
		task.state = StateArchivedOK
	case StatusShutdown:
		task.state = StateShutdown
	default:
		task.state = StateArchivedError
	}
	task.Path = dst

	s.log.Debug("archived task", "task", task.Name, "status", status, "path", dst)
	return dst, nil
}

func (s *Store) writeResult(task *ClaimedTask, status Status, note string, body []byte) (string, error) {
	dir := s.OKDir()
	if status == StatusError {
		dir = s.ErrorDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	dst, err := s.archivePath(dir, task, status, note)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(dst, body); err != nil {
		return "", err
	}
	return dst, nil
}

// archivePath builds <ts>_<stem>[-note].json (or .shutdown.json) and adds a
// counter if that name is taken.
func (s *Store) archivePath(dir string, task *ClaimedTask, status Status, note string) (string, error) {
	base := s.sched.Clock().Now().Format(archiveTimeLayout) + "_" + task.Stem()
	if note = sanitizeNote(note); note != "" {
		base += "-" + note
	}
	ext := TaskExt
	if status == StatusShutdown {
		ext = ShutdownMarker + TaskExt
	}

	for i := 0; i < 1000; i++ {
		name := base + ext
		if i > 0 {
			name = base + "-" + strconv.Itoa(i) + ext
		}
		path := filepath.Join(dir, name)
		if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
	}
	return "", fmt.Errorf("no free archive name for %s", task.Name)
}

func (s *Store) setAside(task *ClaimedTask, cause error) error {
	failed := filepath.Join(s.inbox, task.Name+FailedExt)
	if err := os.Rename(task.Path, failed); err != nil {
		s.log.Error("failed to set aside task", "task", task.Name, "error", err)
		return &ArchiveError{Task: task.Name, Err: errors.Join(cause, err)}
	}

	task.state = StateFailed
	task.Path = failed
	s.log.Error("archive failed, task set aside", "task", task.Name, "path", failed, "error", cause)
	return &ArchiveError{Task: task.Name, FailedPath: failed, Err: cause}
}

// WriteSidecar stores text next to an archive as <archive-stem>-ocr.txt.
func (s *Store) WriteSidecar(archivePath, text string) (string, error) {
	path := SidecarPath(archivePath)
	if err := writeFileAtomic(path, []byte(text)); err != nil {
		return "", err
	}
	return path, nil
}

// Rewrite replaces an archived file's content atomically
func Rewrite(path string, data []byte) error {
	return writeFileAtomic(path, data)
}

// SidecarPath returns where WriteSidecar puts the text for archivePath
func SidecarPath(archivePath string) string {
	return strings.TrimSuffix(archivePath, TaskExt) + OCRSuffix
}

// writeFileAtomic writes to a temp file in the same directory, syncs it and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*"+TempExt)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := atomicRename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

func sanitizeNote(note string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-",
		"\"", "-", "<", "-", ">", "-", "|", "-", " ", "-",
		"\n", "-", "\r", "-",
	)
	note = strings.Trim(replacer.Replace(note), "-.")
	if len(note) > 50 {
		note = note[:50]
	}
	return note
}
