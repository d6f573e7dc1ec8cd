// Package sink writes emitted artifacts to their destination: a directory
// tree, a jar, memory, or several of those at once.
package sink

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// DefaultLocation is the logical location artifacts are written to when
// none is configured.
const DefaultLocation = "API_OUTPUT"

// Resource identifies one artifact and the seeds it depends on.
type Resource struct {
	// Location is the logical output location, e.g. API_OUTPUT.
	Location string
	// Package is the slash separated package path (com/example).
	Package string
	// File is the file name inside the package (Outer$Inner.class).
	File string
	// BinaryName is the dotted binary name of the type the artifact describes.
	BinaryName string
	// Dependencies are the qualified names of the seeds that required the
	// artifact, sorted.
	Dependencies []string
}

// Path returns the slash separated path of the resource below its location.
func (r Resource) Path() string {
	if r.Package == "" {
		return r.File
	}
	return r.Package + "/" + r.File
}

// Validate rejects resources whose path could escape the output root.
func (r Resource) Validate() error {
	if r.File == "" || strings.ContainsAny(r.File, "/\\") {
		return fmt.Errorf("invalid resource file name %q", r.File)
	}
	p := r.Path()
	if path.IsAbs(p) || path.Clean(p) != p || strings.HasPrefix(p, "../") || strings.Contains(p, "\\") {
		return fmt.Errorf("invalid resource path %q", p)
	}
	return nil
}

// Sink receives artifacts. Create is called from a single goroutine, in a
// deterministic order; Close flushes and must be called once.
type Sink interface {
	Create(ctx context.Context, res Resource, data []byte) error
	Close() error
}

// Tee writes every artifact to each of its sinks in turn.
type Tee []Sink

// Create writes to every sink, stopping at the first failure.
func (t Tee) Create(ctx context.Context, res Resource, data []byte) error {
	for _, s := range t {
		if err := s.Create(ctx, res, data); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and returns the first error.
func (t Tee) Close() error {
	var first error
	for _, s := range t {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
