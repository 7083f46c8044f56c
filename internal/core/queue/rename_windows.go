//go:build windows

package queue

import (
	"errors"
	"os"
	"syscall"
	"time"
)

// atomicRename replaces dst with src. Windows refuses to rename over an
// existing or briefly locked file, so retry once after removing dst.
func atomicRename(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		var errno syscall.Errno
		// ERROR_ACCESS_DENIED = 5, ERROR_ALREADY_EXISTS = 183
		if errors.As(linkErr.Err, &errno) && (errno == 5 || errno == 183) {
			_ = os.Remove(dst)
			time.Sleep(10 * time.Millisecond)
			return os.Rename(src, dst)
		}
	}
	return err
}
