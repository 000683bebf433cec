package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// InstanceLock marks a data directory as owned by one running process.
// Lock file: <data_dir>/wheely.lock, content: PID.
type InstanceLock struct {
	path string
}

func NewInstanceLock(dataDir string) *InstanceLock {
	return &InstanceLock{path: filepath.Join(dataDir, "wheely.lock")}
}

func (l *InstanceLock) Path() string { return l.path }

// Check returns the PID holding the lock, if any. A lock with an unreadable
// PID, or held by this process, is not considered held.
func (l *InstanceLock) Check() (bool, int, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to read lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		_ = os.Remove(l.path)
		return false, 0, nil
	}
	if pid == os.Getpid() {
		return false, pid, nil
	}

	if !processAlive(pid) {
		_ = os.Remove(l.path)
		return false, 0, nil
	}

	return true, pid, nil
}

// Acquire writes this process's PID into the lock file
func (l *InstanceLock) Acquire() error {
	return os.WriteFile(l.path, []byte(strconv.Itoa(os.Getpid())), 0600)
}

// Release removes the lock file; a missing file is fine
func (l *InstanceLock) Release() error {
	err := os.Remove(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
