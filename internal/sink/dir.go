package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Dir writes each artifact to <root>/<package>/<file>. Files are written to
// a temporary name and renamed, so a failed write never leaves a truncated
// artifact behind.
type Dir struct {
	root string
}

// NewDir creates the root directory if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Dir{root: root}, nil
}

// Root returns the output directory.
func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) Create(ctx context.Context, res Resource, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := res.Validate(); err != nil {
		return err
	}
	target := filepath.Join(d.root, filepath.FromSlash(res.Path()))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating package directory for %s: %w", res.BinaryName, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+res.File+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", res.BinaryName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", res.BinaryName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", res.BinaryName, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", res.BinaryName, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", res.BinaryName, err)
	}
	return nil
}

func (d *Dir) Close() error {
	return nil
}
