// write_test.go tests [Write] and [WriteExclusive] for correctness,
// overwrite semantics, and cleanup of temp files.

package atomicfile

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// assertNoTemps fails the test if any staged temp file remains in dir.
func assertNoTemps(t *testing.T, dir string) {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if matched, _ := filepath.Match("*.tmp.*", e.Name()); matched {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteBasic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "e2ehooks.toml")

	if err := Write(path, []byte("version = 2\n"), 0o644); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != "version = 2\n" {
		t.Fatalf("got %q", got)
	}
	assertNoTemps(t, dir)
}

func TestWrite_OverwriteExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overwrite.txt")

	if err := Write(path, []byte("original"), 0o644); err != nil {
		t.Fatalf("first Write failed: %v", err)
	}
	if err := Write(path, []byte("updated"), 0o644); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "updated" {
		t.Errorf("content = %q, want %q", got, "updated")
	}
	assertNoTemps(t, dir)
}

func TestWrite_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perms.txt")

	if err := Write(path, []byte("secret"), 0o600); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if got := info.Mode().Perm(); got&0o600 == 0 {
		t.Errorf("permissions = %o, expected at least owner rw", got)
	}
}

func TestWriteCleanupOnFailure(t *testing.T) {
	parent := t.TempDir()
	badPath := filepath.Join(parent, "no-such-dir", "file.txt")

	if err := Write(badPath, []byte("data"), 0o644); err == nil {
		t.Fatal("expected error writing to non-existent directory")
	}
	assertNoTemps(t, parent)
}

// ///////////////////////////////////////////////
// WriteExclusive
// ///////////////////////////////////////////////

func TestWriteExclusiveCreates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "new.toml")

	if err := WriteExclusive(path, []byte("fresh"), 0o644); err != nil {
		t.Fatalf("WriteExclusive: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "fresh" {
		t.Errorf("content = %q, want fresh", got)
	}
	assertNoTemps(t, dir)
}

func TestWriteExclusiveRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "existing.toml")
	if err := os.WriteFile(path, []byte("keep me"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := WriteExclusive(path, []byte("clobber"), 0o644)
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "keep me" {
		t.Errorf("existing file modified: %q", got)
	}
	assertNoTemps(t, dir)
}

func TestWriteExclusiveConcurrentSingleWinner(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "race.toml")
	const n = 10

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = WriteExclusive(path, []byte{byte('A' + i)}, 0o644)
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case !errors.Is(err, ErrExists):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly one winner, got %d", wins)
	}
	assertNoTemps(t, dir)
}
