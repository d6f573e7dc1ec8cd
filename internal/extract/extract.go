// Package extract runs a complete extraction: seeds, closure, documentation
// warnings, parallel stub emission and ordered artifact writes.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"apiextract/internal/closure"
	"apiextract/internal/config"
	"apiextract/internal/docwarn"
	"apiextract/internal/errors"
	"apiextract/internal/lock"
	"apiextract/internal/paths"
	"apiextract/internal/seeds"
	"apiextract/internal/sink"
	"apiextract/internal/slogutil"
	"apiextract/internal/storage"
	"apiextract/internal/version"
)

// Options configure Run.
type Options struct {
	// Root is the project root; state, relative output paths and the seed
	// manifest resolve against it.
	Root   string
	Config *config.Config
	// Manifest overrides the seed manifest at .apiextract/seeds.toml.
	Manifest *seeds.Manifest
	// Sink overrides the outputs configured in Config.Output.
	Sink   sink.Sink
	Logger *slog.Logger
}

// Report describes a finished run.
type Report struct {
	// RunID is the ledger run, empty when the ledger is disabled.
	RunID       string
	Closure     *closure.Result
	DocWarnings []docwarn.Warning
	Artifacts   []sink.Resource
	Duration    time.Duration
}

// Run extracts the API of in. Fatal conditions abort before anything is
// written; a failed write aborts the remaining writes and discards a
// partially built jar.
func Run(ctx context.Context, in *Input, opts Options) (*Report, error) {
	start := time.Now()
	logger := slogutil.OrDiscard(opts.Logger)
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lk, err := lock.Acquire(paths.StateDir(opts.Root))
	if err != nil {
		return nil, err
	}
	defer lk.Release()

	manifest := opts.Manifest
	if manifest == nil {
		if manifest, err = seeds.Load(paths.SeedsPath(opts.Root)); err != nil {
			return nil, err
		}
	}

	res, err := Resolve(in, cfg, manifest, logger)
	if err != nil {
		return nil, err
	}
	report := &Report{Closure: res}

	if cfg.WarnDoc {
		report.DocWarnings = docwarn.Check(res, cfg.DocBasePackages(), logger)
	}

	artifacts, err := Emit(ctx, res, cfg.Output.Location, cfg.Emit.Workers)
	if err != nil {
		return nil, err
	}
	logger.Info("Stubs emitted", "artifacts", len(artifacts), "workers", cfg.Emit.Workers)

	out := opts.Sink
	abort := func() {}
	if out == nil {
		o, err := openOutputs(opts.Root, cfg.Output)
		if err != nil {
			return nil, err
		}
		out, abort = o.sink, o.abort
	}

	var ledger *storage.Ledger
	if cfg.Ledger.Enabled {
		db, err := storage.Open(opts.Root, logger)
		if err != nil {
			abort()
			_ = out.Close()
			return nil, errors.New(errors.LedgerFailed, "cannot open the artifact ledger", err)
		}
		defer db.Close()

		ledger = storage.NewLedger(db)
		run, err := ledger.BeginRun(version.Info(), len(res.Seeds()))
		if err != nil {
			abort()
			_ = out.Close()
			return nil, errors.New(errors.LedgerFailed, "cannot record the run", err)
		}
		report.RunID = run.ID
		out = sink.NewLedger(out, ledger, run.ID, logger)
	}

	written, werr := write(ctx, out, artifacts)
	if werr != nil {
		abort()
	}
	cerr := out.Close()
	if werr == nil && cerr != nil {
		werr = errors.New(errors.EmitFailed, "cannot finish the output", cerr)
	}
	report.Artifacts = written

	if ledger != nil {
		status := storage.RunSucceeded
		if werr != nil {
			status = storage.RunFailed
		}
		if err := ledger.FinishRun(report.RunID, status, len(written)); err != nil && werr == nil {
			werr = errors.New(errors.LedgerFailed, "cannot finish the run", err)
		}
	}
	if werr != nil {
		return nil, werr
	}

	report.Duration = time.Since(start)
	logger.Info("Extraction complete",
		"artifacts", len(written),
		"declarations", res.Len(),
		"docWarnings", len(report.DocWarnings),
		"duration", report.Duration.String(),
	)
	return report, nil
}

// write hands artifacts to out in order and returns the ones accepted.
func write(ctx context.Context, out sink.Sink, artifacts []Artifact) ([]sink.Resource, error) {
	written := make([]sink.Resource, 0, len(artifacts))
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if err := a.Resource.Validate(); err != nil {
			return written, errors.New(errors.EmitFailed, "cannot write "+a.Resource.BinaryName, err)
		}
		if err := out.Create(ctx, a.Resource, a.Data); err != nil {
			return written, errors.New(errors.EmitFailed, fmt.Sprintf("cannot write %s", a.Resource.BinaryName), err)
		}
		written = append(written, a.Resource)
	}
	return written, nil
}
