package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = "montage.lock"

// ErrLocked reports that another invocation already holds the temp
// directory.
var ErrLocked = errors.New("another montage run is already using this directory")

// Lock guards the temp directory against concurrent runs. Concurrent
// encodes into the same slot would corrupt artifacts and sidecars, so a
// second invocation is refused instead.
type Lock struct {
	fl   *flock.Flock
	path string
}

// AcquireLock takes the temp-directory lock, creating the directory if
// needed.
func AcquireLock(tempDir string) (*Lock, error) {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	path := filepath.Join(tempDir, lockFileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{fl: fl, path: path}, nil
}

// Release drops the lock. Safe on a nil receiver.
func (l *Lock) Release() {
	if l == nil {
		return
	}
	_ = l.fl.Unlock()
}

// Path names the lock file.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}
