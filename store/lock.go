package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// LockFileName is the name of the lock file inside a locked directory.
const LockFileName = ".lock"

var ErrLocked = errors.New("directory locked")

// DirectoryLock provides exclusive access to a directory through an
// advisory flock(2) on a lock file inside it.
type DirectoryLock struct {
	lockFilePath string
	lockFile     *os.File
}

func NewDirectoryLock(dir string) *DirectoryLock {
	return &DirectoryLock{lockFilePath: filepath.Join(dir, LockFileName)}
}

// Lock acquires the lock without blocking. It fails with ErrLocked if
// another process, or another DirectoryLock, holds it.
func (l *DirectoryLock) Lock() error {
	if l.lockFile != nil {
		return fmt.Errorf("lock already held by this instance")
	}

	if err := os.MkdirAll(filepath.Dir(l.lockFilePath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	file, err := os.OpenFile(l.lockFilePath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		return fmt.Errorf("%w: %s: %v", ErrLocked, filepath.Dir(l.lockFilePath), err)
	}

	l.lockFile = file
	return nil
}

// Unlock releases the lock and removes the lock file. Unlocking an unlocked
// DirectoryLock is a no-op.
func (l *DirectoryLock) Unlock() error {
	if l.lockFile == nil {
		return nil
	}

	// Cleared first so IsLocked is false even if releasing fails.
	file := l.lockFile
	l.lockFile = nil

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_UN); err != nil {
		_ = file.Close()
		return fmt.Errorf("release lock: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close lock file: %w", err)
	}
	if err := os.Remove(l.lockFilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

func (l *DirectoryLock) IsLocked() bool {
	return l.lockFile != nil
}
