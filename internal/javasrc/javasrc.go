// Package javasrc builds a declaration graph from Java source files and
// discovers seeds from marker annotations. Parsing uses tree-sitter and
// needs a cgo build; without cgo Parse reports an error and callers fall
// back to snapshots.
package javasrc

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"apiextract/internal/closure"
	"apiextract/internal/decl"
	"apiextract/internal/errors"
)

// Options configure a Parser.
type Options struct {
	// IncludeAnnotation and ExcludeAnnotation are the qualified names of
	// the marker annotations that make a declaration a seed.
	IncludeAnnotation string
	ExcludeAnnotation string
	Logger            *slog.Logger
}

// Source is one compilation unit.
type Source struct {
	Path string
	Data []byte
}

// Result is the parsed graph and the seeds found in it.
type Result struct {
	Graph *decl.Graph
	Seeds []closure.Seed
	Files int
}

// CollectFiles expands paths into the .java files below them, sorted.
// Hidden directories are skipped.
func CollectFiles(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.New(errors.SourceParseFailed, "cannot read "+root, err)
		}
		if !info.IsDir() {
			if !seen[root] {
				seen[root] = true
				files = append(files, root)
			}
			continue
		}
		err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if path != root && strings.HasPrefix(info.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, ".java") && !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.New(errors.SourceParseFailed, "cannot walk "+root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// ReadSources reads files into memory.
func ReadSources(files []string) ([]Source, error) {
	out := make([]Source, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, errors.New(errors.SourceParseFailed, "cannot read "+f, err)
		}
		out = append(out, Source{Path: f, Data: data})
	}
	return out, nil
}
