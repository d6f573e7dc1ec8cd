//go:build windows

// Package lock serializes apiextract runs that share a state directory.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"apiextract/internal/paths"
)

// Lock is a best-effort lock on a state directory. Windows has no flock, so
// this only records the owning PID.
type Lock struct {
	path string
	file *os.File
}

// Acquire records the lock file in stateDir.
func Acquire(stateDir string) (*Lock, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	path := filepath.Join(stateDir, paths.LockFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("writing PID to lock file: %w", err)
	}
	return &Lock{path: path, file: file}, nil
}

// Release removes the lock file. It is safe on nil.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = l.file.Close()
	_ = os.Remove(l.path)
}
