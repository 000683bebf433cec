//go:build windows

package storage

import "os"

// FindProcess opens a handle on Windows and fails for dead PIDs
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = p.Release()
	return true
}
