package extract

import (
	"log/slog"

	"apiextract/internal/closure"
	"apiextract/internal/config"
	"apiextract/internal/decl"
	"apiextract/internal/seeds"
	"apiextract/internal/slogutil"
)

// Input is a declaration graph and the seeds its front end discovered from
// marker annotations.
type Input struct {
	Graph *decl.Graph
	Seeds []closure.Seed
}

// Resolve merges the discovered seeds with manifest and computes the
// closure under cfg's scope. manifest may be nil.
func Resolve(in *Input, cfg *config.Config, manifest *seeds.Manifest, logger *slog.Logger) (*closure.Result, error) {
	logger = slogutil.OrDiscard(logger)

	var listed []closure.Seed
	if manifest != nil {
		var err error
		if listed, err = manifest.Seeds(in.Graph); err != nil {
			return nil, err
		}
	}
	merged := seeds.Merge(in.Graph, in.Seeds, listed)
	logger.Debug("Seeds merged",
		"discovered", len(in.Seeds),
		"manifest", len(listed),
		"total", len(merged),
	)

	resolver := closure.NewResolver(in.Graph, closure.Options{
		Scope: closure.Scope{
			Base:    cfg.BasePackages,
			Exclude: cfg.ExcludePackages,
		},
		IncludeMembersDefault: cfg.IncludeMembersDefault,
		Logger:                logger,
	})
	res, err := resolver.Resolve(merged)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		logger.Warn(w.Message, "code", string(w.Code), "declaration", w.Name)
	}
	return res, nil
}
