package sink

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"apiextract/internal/storage"
)

// Recorder is the part of the ledger a Ledger sink needs.
type Recorder interface {
	RecordArtifact(a *storage.ArtifactRecord) error
}

// Ledger records every artifact its inner sink accepted, with its content
// hash and dependency set.
type Ledger struct {
	inner  Sink
	rec    Recorder
	runID  string
	logger *slog.Logger
	count  int
}

// NewLedger wraps inner so artifacts are recorded under runID.
func NewLedger(inner Sink, rec Recorder, runID string, logger *slog.Logger) *Ledger {
	return &Ledger{inner: inner, rec: rec, runID: runID, logger: logger}
}

func (l *Ledger) Create(ctx context.Context, res Resource, data []byte) error {
	if err := l.inner.Create(ctx, res, data); err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	rec := &storage.ArtifactRecord{
		Location:     res.Location,
		BinaryName:   res.BinaryName,
		Package:      res.Package,
		File:         res.File,
		SHA256:       hex.EncodeToString(sum[:]),
		Size:         int64(len(data)),
		RunID:        l.runID,
		Dependencies: res.Dependencies,
	}
	if err := l.rec.RecordArtifact(rec); err != nil {
		return fmt.Errorf("recording %s: %w", res.BinaryName, err)
	}
	l.count++
	if l.logger != nil {
		l.logger.Debug("Artifact recorded", "binaryName", res.BinaryName, "sha256", rec.SHA256[:12])
	}
	return nil
}

// Recorded returns how many artifacts were recorded.
func (l *Ledger) Recorded() int {
	return l.count
}

func (l *Ledger) Close() error {
	return l.inner.Close()
}
