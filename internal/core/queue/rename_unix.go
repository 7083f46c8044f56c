//go:build !windows

package queue

import "os"

// atomicRename replaces dst with src. os.Rename is atomic on Unix.
func atomicRename(src, dst string) error {
	return os.Rename(src, dst)
}
