package main

import (
	"context"

	"github.com/spf13/cobra"

	"apiextract/internal/errors"
	"apiextract/internal/extract"
	"apiextract/internal/javasrc"
	"apiextract/internal/paths"
	"apiextract/internal/snapshot"
)

// inputFlags select where the declaration graph comes from.
type inputFlags struct {
	snapshot string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "Read declarations from a YAML/JSON snapshot instead of Java sources")
}

// loadInput builds the declaration graph from a snapshot or from the Java
// sources below args. Without either, the project root is scanned.
func loadInput(ctx context.Context, s *session, f inputFlags, args []string) (*extract.Input, error) {
	if f.snapshot != "" {
		if len(args) > 0 {
			return nil, errors.Newf(errors.ConfigInvalid, "--snapshot cannot be combined with source paths")
		}
		snap, err := snapshot.Load(paths.Resolve(s.root, f.snapshot))
		if err != nil {
			return nil, err
		}
		s.logger.Info("Snapshot loaded",
			"file", f.snapshot,
			"declarations", snap.Graph.Len(),
			"seeds", len(snap.Seeds),
		)
		return &extract.Input{Graph: snap.Graph, Seeds: snap.Seeds}, nil
	}

	roots := make([]string, 0, len(args))
	for _, a := range args {
		roots = append(roots, paths.Resolve(s.root, a))
	}
	if len(roots) == 0 {
		roots = []string{s.root}
	}
	files, err := javasrc.CollectFiles(roots)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Newf(errors.SourceParseFailed, "no .java files found under %v", roots)
	}
	sources, err := javasrc.ReadSources(files)
	if err != nil {
		return nil, err
	}

	parser := javasrc.NewParser(javasrc.Options{
		IncludeAnnotation: s.cfg.Annotations.Include,
		ExcludeAnnotation: s.cfg.Annotations.Exclude,
		Logger:            s.logger,
	})
	res, err := parser.Parse(ctx, sources)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Sources parsed",
		"files", res.Files,
		"declarations", res.Graph.Len(),
		"seeds", len(res.Seeds),
	)
	return &extract.Input{Graph: res.Graph, Seeds: res.Seeds}, nil
}
