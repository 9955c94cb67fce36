// Tests for the artifact watcher: construction, recording of new files in
// nested directories, coalesced events, close semantics, and polling.
package watch

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"tools.zach/dev/e2ehooks/internal/logger"
)

// syncBuffer is a bytes.Buffer safe for the watcher goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// waitCount polls w.Count until it reaches want or the deadline passes.
func waitCount(t *testing.T, w *Watcher, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if w.Count() >= want {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("Count = %d, want %d", w.Count(), want)
}

func mkfile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ///////////////////////////////////////////////
// Constructor Tests
// ///////////////////////////////////////////////

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		dirs      func(t *testing.T) []string
		wantCount int
	}{
		{
			name:      "empty target",
			dirs:      func(t *testing.T) []string { return []string{t.TempDir()} },
			wantCount: 0,
		},
		{
			name: "missing target is skipped",
			dirs: func(t *testing.T) []string {
				return []string{filepath.Join(t.TempDir(), "absent")}
			},
			wantCount: 0,
		},
		{
			name: "existing files are recorded",
			dirs: func(t *testing.T) []string {
				dir := t.TempDir()
				os.MkdirAll(filepath.Join(dir, "run-1"), 0o755)
				mkfile(t, filepath.Join(dir, "run-1", "trace.zip"))
				mkfile(t, filepath.Join(dir, "index.html"))
				return []string{dir}
			},
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := New(tt.dirs(t), Options{})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer w.Close()

			if w.changed() == nil {
				t.Error("changed() channel is nil")
			}
			if got := w.Count(); got != tt.wantCount {
				t.Errorf("Count = %d, want %d", got, tt.wantCount)
			}
		})
	}
}

// ///////////////////////////////////////////////
// fsnotify Tests
// ///////////////////////////////////////////////

func TestWatcherRecordsNewFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	if w.Polling() {
		t.Skip("fsnotify unavailable on this host")
	}

	mkfile(t, filepath.Join(dir, "a.png"))
	select {
	case <-w.changed():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	waitCount(t, w, 1)
}

func TestWatcherFollowsNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	if w.Polling() {
		t.Skip("fsnotify unavailable on this host")
	}

	sub := filepath.Join(dir, "login-chromium")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to register the new directory; a file that
	// lands first is still picked up by addTree's walk.
	time.Sleep(50 * time.Millisecond)
	mkfile(t, filepath.Join(sub, "trace.zip"))
	mkfile(t, filepath.Join(sub, "video.webm"))

	waitCount(t, w, 2)
}

func TestWatcherCountsRewritesOnce(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	path := filepath.Join(dir, "results.json")
	for range 5 {
		mkfile(t, path)
	}
	waitCount(t, w, 1)
	time.Sleep(100 * time.Millisecond)
	if got := w.Count(); got != 1 {
		t.Errorf("Count = %d, want 1", got)
	}
}

func TestWatcherLogsRelativePaths(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "test-results")
	os.MkdirAll(target, 0o755)

	var buf syncBuffer
	log := slog.New(logger.NewHandler(&buf, logger.LevelDebug))
	w, err := New([]string{target}, Options{Logger: log, ForcePolling: true, PollInterval: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	mkfile(t, filepath.Join(target, "out.txt"))
	waitCount(t, w, 1)

	if !strings.Contains(buf.String(), "file=test-results/out.txt") {
		t.Errorf("log missing relative path: %q", buf.String())
	}
}

// ///////////////////////////////////////////////
// Polling Tests
// ///////////////////////////////////////////////

func TestWatcherPolling(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, Options{ForcePolling: true, PollInterval: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if !w.Polling() {
		t.Fatal("expected polling mode")
	}
	os.MkdirAll(filepath.Join(dir, "nested", "deeper"), 0o755)
	mkfile(t, filepath.Join(dir, "nested", "deeper", "shot.png"))

	select {
	case <-w.changed():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for polled event")
	}
	waitCount(t, w, 1)
}

// ///////////////////////////////////////////////
// Close Tests
// ///////////////////////////////////////////////

func TestWatcherCloseIdempotent(t *testing.T) {
	for _, polling := range []bool{false, true} {
		w, err := New([]string{t.TempDir()}, Options{ForcePolling: polling})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Errorf("first Close: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Errorf("second Close: %v", err)
		}
	}
}

func TestWatcherStopsRecordingAfterClose(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, Options{ForcePolling: true, PollInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.Close()

	mkfile(t, filepath.Join(dir, "late.txt"))
	time.Sleep(50 * time.Millisecond)
	if got := w.Count(); got != 0 {
		t.Errorf("Count = %d after Close, want 0", got)
	}
}
