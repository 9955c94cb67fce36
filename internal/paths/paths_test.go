package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// ///////////////////////////////////////////////
// Constant Value Tests
// ///////////////////////////////////////////////

func TestConstantValues(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"TestResultsDir", TestResultsDir, "test-results"},
		{"ReportDir", ReportDir, "playwright-report"},
		{"ConfigFile", ConfigFile, "e2ehooks.toml"},
		{"BinaryName", BinaryName, "e2ehooks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestDefaultTargetsReturnsFreshSlice(t *testing.T) {
	a := DefaultTargets()
	if len(a) != 2 || a[0] != TestResultsDir || a[1] != ReportDir {
		t.Fatalf("DefaultTargets() = %v", a)
	}
	a[0] = "mutated"
	if b := DefaultTargets(); b[0] != TestResultsDir {
		t.Errorf("DefaultTargets shares backing array: got %q", b[0])
	}
}

// ///////////////////////////////////////////////
// Root Method Tests
// ///////////////////////////////////////////////

func TestRootMethods(t *testing.T) {
	dir := filepath.Join("home", "user", "project")
	r := Root{Dir: dir}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Config", r.Config(), filepath.Join(dir, "e2ehooks.toml")},
		{"TestResults", r.TestResults(), filepath.Join(dir, "test-results")},
		{"Report", r.Report(), filepath.Join(dir, "playwright-report")},
		{"Target", r.Target("coverage/e2e"), filepath.Join(dir, "coverage", "e2e")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestRootEmptyDir(t *testing.T) {
	r := Root{}
	if got := r.TestResults(); got != TestResultsDir {
		t.Errorf("TestResults() with empty root = %q, want %q", got, TestResultsDir)
	}
}

// ///////////////////////////////////////////////
// Root Resolution Tests
// ///////////////////////////////////////////////

func TestCallerRootIsParentOfSourceDir(t *testing.T) {
	r, err := CallerRoot(0)
	if err != nil {
		t.Fatalf("CallerRoot: %v", err)
	}
	_, file, _, _ := runtime.Caller(0)
	want := filepath.Dir(filepath.Dir(file))
	if r.Dir != want {
		t.Errorf("CallerRoot(0) = %q, want %q", r.Dir, want)
	}
	if filepath.Base(want) != "internal" {
		t.Errorf("expected root to be the internal dir, got %q", want)
	}
}

func TestRootOfFile(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "e2e", "suite_test.go")
	tests := []struct {
		name    string
		file    string
		want    string
		wantErr bool
	}{
		{"absolute", abs, filepath.Dir(filepath.Dir(abs)), false},
		{"trimpath module path", "tools.zach/dev/e2ehooks/e2e/suite_test.go", "", true},
		{"bare file name", "suite_test.go", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rootOfFile(tt.file)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("rootOfFile(%q) = %q, want error", tt.file, got.Dir)
				}
				return
			}
			if err != nil {
				t.Fatalf("rootOfFile(%q): %v", tt.file, err)
			}
			if got.Dir != tt.want {
				t.Errorf("rootOfFile(%q) = %q, want %q", tt.file, got.Dir, tt.want)
			}
		})
	}
}

func TestExecutableRoot(t *testing.T) {
	r, err := ExecutableRoot()
	if err != nil {
		t.Fatalf("ExecutableRoot: %v", err)
	}
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable: %v", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	if want := filepath.Dir(filepath.Dir(exe)); r.Dir != want {
		t.Errorf("ExecutableRoot() = %q, want %q", r.Dir, want)
	}
}

func TestAbs(t *testing.T) {
	r, err := Root{Dir: "relative"}.Abs()
	if err != nil {
		t.Fatalf("Abs: %v", err)
	}
	if !filepath.IsAbs(r.Dir) {
		t.Errorf("Abs() = %q, want absolute path", r.Dir)
	}
	if filepath.Base(r.Dir) != "relative" {
		t.Errorf("Abs() lost base name: %q", r.Dir)
	}
}
