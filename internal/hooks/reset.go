package hooks

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// asideMarker is inserted between a target name and a random suffix to name
// the sibling an old tree is moved to while it is replaced.
const asideMarker = ".e2ehooks-old-"

// suffixBytes is the random suffix length; it is hex encoded in the name.
const suffixBytes = 6

// reset makes path an empty directory. A non-directory at path is replaced,
// or rejected with ErrNotDirectory when strict is set. Symlinks are removed
// as links and never followed.
func reset(path string, strict bool) error {
	sweepAsides(path)

	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return os.MkdirAll(path, 0o755)
	}
	if err != nil {
		return err
	}
	if strict && !info.IsDir() {
		return &fs.PathError{Op: "reset", Path: path, Err: ErrNotDirectory}
	}

	aside := path + asideMarker + randomSuffix()
	if err := os.Rename(path, aside); err != nil {
		return err
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		if restoreErr := os.Rename(aside, path); restoreErr != nil {
			return errors.Join(err, restoreErr)
		}
		return err
	}
	return os.RemoveAll(aside)
}

// sweepAsides removes trees left next to path by an interrupted reset.
// Failures are ignored; the leftover is retried on the next run.
func sweepAsides(path string) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if isAside(base, e.Name()) {
			os.RemoveAll(filepath.Join(dir, e.Name()))
		}
	}
}

// isAside reports whether name is exactly what reset would have named an
// aside of base: the marker followed by the lowercase hex suffix.
func isAside(base, name string) bool {
	suffix, ok := strings.CutPrefix(name, base+asideMarker)
	if !ok || len(suffix) != hex.EncodedLen(suffixBytes) {
		return false
	}
	for _, c := range suffix {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}

func randomSuffix() string {
	b := make([]byte, suffixBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
