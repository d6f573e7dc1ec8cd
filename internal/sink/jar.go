package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
)

// jarEpoch is the modification time stamped on every entry so the same
// artifacts always produce the same jar bytes.
var jarEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

const manifest = "Manifest-Version: 1.0\r\nCreated-By: apiextract\r\n\r\n"

// Jar collects artifacts into a single jar file. The jar is assembled in a
// temporary file next to the target and renamed into place by Close, so an
// aborted run leaves any previous jar untouched.
type Jar struct {
	target string
	tmp    *os.File
	zw     *zip.Writer
	dirs   map[string]bool
	closed bool
}

// NewJar starts a jar that Close will move to target.
func NewJar(target string) (*Jar, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return nil, fmt.Errorf("creating jar directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return nil, fmt.Errorf("creating jar: %w", err)
	}
	j := &Jar{target: target, tmp: tmp, zw: zip.NewWriter(tmp), dirs: make(map[string]bool)}
	if err := j.writeEntry("META-INF/MANIFEST.MF", []byte(manifest)); err != nil {
		j.Abort()
		return nil, err
	}
	return j, nil
}

func (j *Jar) writeEntry(name string, data []byte) error {
	if err := j.ensureDirs(name); err != nil {
		return err
	}
	w, err := j.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: jarEpoch,
	})
	if err != nil {
		return fmt.Errorf("adding %s to jar: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("adding %s to jar: %w", name, err)
	}
	return nil
}

// ensureDirs adds directory entries for every parent of name.
func (j *Jar) ensureDirs(name string) error {
	for i := 0; i < len(name); i++ {
		if name[i] != '/' {
			continue
		}
		dir := name[:i+1]
		if j.dirs[dir] {
			continue
		}
		j.dirs[dir] = true
		if _, err := j.zw.CreateHeader(&zip.FileHeader{Name: dir, Method: zip.Store, Modified: jarEpoch}); err != nil {
			return fmt.Errorf("adding %s to jar: %w", dir, err)
		}
	}
	return nil
}

func (j *Jar) Create(ctx context.Context, res Resource, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if j.closed {
		return fmt.Errorf("jar %s is closed", j.target)
	}
	if err := res.Validate(); err != nil {
		return err
	}
	return j.writeEntry(res.Path(), data)
}

// Close finishes the jar and moves it to its target path.
func (j *Jar) Close() error {
	if j.closed {
		return nil
	}
	j.closed = true
	if err := j.zw.Close(); err != nil {
		_ = j.tmp.Close()
		_ = os.Remove(j.tmp.Name())
		return fmt.Errorf("finishing jar: %w", err)
	}
	if err := j.tmp.Chmod(0644); err != nil {
		_ = j.tmp.Close()
		_ = os.Remove(j.tmp.Name())
		return fmt.Errorf("finishing jar: %w", err)
	}
	if err := j.tmp.Close(); err != nil {
		_ = os.Remove(j.tmp.Name())
		return fmt.Errorf("finishing jar: %w", err)
	}
	if err := os.Rename(j.tmp.Name(), j.target); err != nil {
		_ = os.Remove(j.tmp.Name())
		return fmt.Errorf("finishing jar: %w", err)
	}
	return nil
}

// Abort discards the jar being written.
func (j *Jar) Abort() {
	if j.closed {
		return
	}
	j.closed = true
	_ = j.tmp.Close()
	_ = os.Remove(j.tmp.Name())
}
