package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// InstanceLock prevents two broker processes from serving the same port.
// The broker fronts a non-reentrant worker with purely in-memory state, so
// a second instance would silently split the queue.
type InstanceLock struct {
	lockFile *flock.Flock
	lockPath string
}

// NewInstanceLock creates a lock keyed by the listen port.
func NewInstanceLock(port string) (*InstanceLock, error) {
	tempDir := os.TempDir()

	lockDir := filepath.Join(tempDir, "agentq")
	if err := os.MkdirAll(lockDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lockPath := filepath.Join(lockDir, fmt.Sprintf("port-%s.lock", port))
	return &InstanceLock{
		lockFile: flock.New(lockPath),
		lockPath: lockPath,
	}, nil
}

// TryLock attempts to acquire the instance lock.
// Returns an error if the lock is already held.
func (l *InstanceLock) TryLock() error {
	locked, err := l.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to try lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another agentq instance is already running on this port")
	}
	return nil
}

// Unlock releases the lock and removes the lock file.
func (l *InstanceLock) Unlock() error {
	if l.lockFile == nil {
		return nil
	}
	if err := l.lockFile.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock: %w", err)
	}
	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// GetLockPath returns the path to the lock file (for debugging/testing)
func (l *InstanceLock) GetLockPath() string {
	return l.lockPath
}
