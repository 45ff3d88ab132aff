package storage

import (
	"fmt"
	"os"
	"time"
)

// Lock is an advisory, directory-based lock: one crawler run at a time
// may hold the lock on a given working directory.
type Lock struct {
	path string
}

// AcquireLock retries os.Mkdir on path until it succeeds or timeout
// elapses, the simplest cross-process advisory lock available without
// pulling in a file-locking library the rest of the codebase has no
// other use for.
func AcquireLock(path string, timeout time.Duration) (*Lock, error) {
	deadline := time.Now().Add(timeout)
	for {
		err := os.Mkdir(path, 0o755)
		if err == nil {
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("acquiring lock %s: %w", path, err)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("acquiring lock %s: timed out after %s", path, timeout)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// Release removes the lock directory.
func (l *Lock) Release() error {
	return os.Remove(l.path)
}
