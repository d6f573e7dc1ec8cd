package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// Layout of the per-project state directory.
const (
	StateDirName   = ".apiextract"
	ConfigFileName = "config.toml"
	SeedsFileName  = "seeds.toml"
	LedgerFileName = "ledger.db"
	LockFileName   = "apiextract.lock"
	LogsDirName    = "logs"
)

// StateDir returns <root>/.apiextract.
func StateDir(root string) string {
	return filepath.Join(root, StateDirName)
}

// EnsureStateDir creates the state directory if needed and returns it.
func EnsureStateDir(root string) (string, error) {
	dir := StateDir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// ConfigPath returns the path of the project configuration file.
func ConfigPath(root string) string {
	return filepath.Join(StateDir(root), ConfigFileName)
}

// SeedsPath returns the path of the optional seed manifest.
func SeedsPath(root string) string {
	return filepath.Join(StateDir(root), SeedsFileName)
}

// LedgerPath returns the path of the artifact ledger database.
func LedgerPath(root string) string {
	return filepath.Join(StateDir(root), LedgerFileName)
}

// LogsDir returns the directory relative log file names resolve against.
func LogsDir(root string) string {
	return filepath.Join(StateDir(root), LogsDirName)
}

// CanonicalizePath converts an absolute path to a root-relative path with
// forward slashes, resolving symlinks on both sides when they exist.
func CanonicalizePath(absolutePath string, root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		resolved = absolutePath
	}

	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		rootResolved = root
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// IsWithinRoot reports whether path lies below root.
func IsWithinRoot(path string, root string) bool {
	canonical, err := CanonicalizePath(path, root)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// NormalizePath converts backslashes to forward slashes.
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// Resolve makes a configured path absolute against root. Absolute paths
// are returned unchanged.
func Resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
