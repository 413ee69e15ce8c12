// Package fsutil writes report artifacts without ever exposing a partially
// written file.
//
// A write goes to a temporary file in the destination directory, is synced,
// and is then renamed over the destination. Concurrent wcagscan processes
// writing the same artifact serialize on a lock file next to it.
package fsutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FilePerm is the mode of written artifacts.
const FilePerm os.FileMode = 0o644

// dirPerm is the mode of created parent directories.
const dirPerm os.FileMode = 0o750

// LockPath returns the lock file guarding path: a hidden file in the same
// directory.
func LockPath(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".lock")
}

// AtomicWrite replaces path with data.
func AtomicWrite(path string, data []byte) error {
	return AtomicWriteFunc(path, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(data))
		return err
	})
}

// AtomicWriteFunc replaces path with whatever fn writes. If fn or any later
// step fails, path is left untouched and the temporary file is removed.
func AtomicWriteFunc(path string, fn func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := fn(tmp); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, FilePerm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}

// LockedWrite holds the lock of path while atomically replacing it with
// whatever fn writes.
func LockedWrite(path string, fn func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}

	lock := flock.New(LockPath(path))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", lock.Path(), err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	return AtomicWriteFunc(path, fn)
}
