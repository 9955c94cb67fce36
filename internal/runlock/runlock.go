// Package runlock serializes setup runs against the same project root with
// an advisory lock held on the root directory itself, so no lock file is
// ever written.
package runlock

import "errors"

// ErrLocked is returned by [Acquire] when another process holds the lock.
var ErrLocked = errors.New("project root is locked by another run")

// Lock is a held root lock. Release it exactly once.
type Lock struct {
	release func() error
}

// Acquire takes a non-blocking exclusive lock on dir. It returns an error
// matching [ErrLocked] when another holder exists.
func Acquire(dir string) (*Lock, error) {
	release, err := lockDir(dir)
	if err != nil {
		return nil, err
	}
	return &Lock{release: release}, nil
}

// Release drops the lock. Calling Release on a nil Lock is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.release == nil {
		return nil
	}
	release := l.release
	l.release = nil
	return release()
}
