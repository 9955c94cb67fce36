// Package atomicfile writes files through a synced temporary file so readers
// never observe a partially written config.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// ErrExists is returned by [WriteExclusive] when the target already exists.
var ErrExists = os.ErrExist

// Write atomically replaces path with data. The data is written and synced to
// a temporary file in the same directory, given perm, then renamed over path.
// The temporary file is removed on any failure.
func Write(path string, data []byte, perm os.FileMode) error {
	return commit(path, data, perm, os.Rename)
}

// WriteExclusive is like [Write] but fails with an error matching [ErrExists]
// when path already exists. The existence check and the publish are one
// hard-link operation, so two concurrent writers cannot both succeed.
func WriteExclusive(path string, data []byte, perm os.FileMode) error {
	return commit(path, data, perm, os.Link)
}

// commit stages data in a temp file next to path and publishes it with
// publish (rename or link). The temp name never survives the call.
func commit(path string, data []byte, perm os.FileMode, publish func(oldpath, newpath string) error) error {
	tmpName, err := stage(filepath.Dir(path), filepath.Base(path), data, perm)
	if err != nil {
		return err
	}
	defer os.Remove(tmpName)

	if err := publish(tmpName, path); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("publish %s: %w", path, ErrExists)
		}
		return fmt.Errorf("publish %s: %w", path, err)
	}
	return nil
}

// stage writes data to a new temp file in dir and returns its name. On error
// nothing is left behind.
func stage(dir, base string, data []byte, perm os.FileMode) (name string, err error) {
	f, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name = f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(name)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err = f.Sync(); err != nil {
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err = f.Chmod(perm); err != nil {
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return name, nil
}
