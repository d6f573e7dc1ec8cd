package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStateLayout(t *testing.T) {
	root := "/work/project"
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"state", StateDir(root), "/work/project/.apiextract"},
		{"config", ConfigPath(root), "/work/project/.apiextract/config.toml"},
		{"seeds", SeedsPath(root), "/work/project/.apiextract/seeds.toml"},
		{"ledger", LedgerPath(root), "/work/project/.apiextract/ledger.db"},
		{"logs", LogsDir(root), "/work/project/.apiextract/logs"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != filepath.FromSlash(tc.want) {
				t.Errorf("got %s, want %s", tc.got, tc.want)
			}
		})
	}
}

func TestEnsureStateDir(t *testing.T) {
	root := t.TempDir()
	dir, err := EnsureStateDir(root)
	if err != nil {
		t.Fatalf("EnsureStateDir failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("state dir not created: %v", err)
	}
	if _, err := EnsureStateDir(root); err != nil {
		t.Errorf("second EnsureStateDir failed: %v", err)
	}
}

func tempRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func TestCanonicalizePath(t *testing.T) {
	root := tempRoot(t)
	src := filepath.Join(root, "src", "main", "java")
	if err := os.MkdirAll(src, 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want string
	}{
		{filepath.Join(src, "A.java"), "src/main/java/A.java"},
		{root, "."},
		{filepath.Join(root, "missing", "B.java"), "missing/B.java"},
	}
	for _, tc := range tests {
		got, err := CanonicalizePath(tc.path, root)
		if err != nil {
			t.Fatalf("CanonicalizePath(%s) error: %v", tc.path, err)
		}
		if got != tc.want {
			t.Errorf("CanonicalizePath(%s) = %s, want %s", tc.path, got, tc.want)
		}
	}
}

func TestIsWithinRoot(t *testing.T) {
	root := tempRoot(t)
	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "a", "b.java"), true},
		{root, true},
		{filepath.Dir(root), false},
		{filepath.Join(root, "..", "other"), false},
		{filepath.Join(root, "..foo"), true},
	}
	for _, tc := range tests {
		if got := IsWithinRoot(tc.path, root); got != tc.want {
			t.Errorf("IsWithinRoot(%s) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		root, path, want string
	}{
		{"/p", "", ""},
		{"/p", "out", "/p/out"},
		{"/p", "/abs/out", "/abs/out"},
	}
	for _, tc := range tests {
		if got := Resolve(tc.root, tc.path); got != filepath.FromSlash(tc.want) {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tc.root, tc.path, got, tc.want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	if got := NormalizePath("a/b/c"); got != "a/b/c" {
		t.Errorf("NormalizePath = %s", got)
	}
}
