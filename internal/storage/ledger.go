package storage

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// timeFormat has a fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Run statuses.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Run is one recorded extraction.
type Run struct {
	ID          string
	ToolVersion string
	Status      string
	Seeds       int
	Artifacts   int
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// ArtifactRecord is the last write of one artifact and the seeds it
// depends on.
type ArtifactRecord struct {
	Location     string
	BinaryName   string
	Package      string
	File         string
	SHA256       string
	Size         int64
	RunID        string
	WrittenAt    time.Time
	Dependencies []string
}

// Ledger records which artifacts each run wrote and which seeds they
// depend on.
type Ledger struct {
	db  *DB
	now func() time.Time
}

// NewLedger creates a ledger over db.
func NewLedger(db *DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// BeginRun records a new run in the running state.
func (l *Ledger) BeginRun(toolVersion string, seeds int) (*Run, error) {
	run := &Run{
		ID:          uuid.New().String(),
		ToolVersion: toolVersion,
		Status:      RunRunning,
		Seeds:       seeds,
		StartedAt:   l.now().UTC(),
	}
	_, err := l.db.Exec(`
		INSERT INTO runs (run_id, tool_version, status, seed_count, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.ToolVersion, run.Status, run.Seeds, run.StartedAt.Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	return run, nil
}

// FinishRun stores the final status and artifact count of a run.
func (l *Ledger) FinishRun(runID, status string, artifacts int) error {
	res, err := l.db.Exec(`
		UPDATE runs SET status = ?, artifact_count = ?, finished_at = ?
		WHERE run_id = ?
	`, status, artifacts, l.now().UTC().Format(timeFormat), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("unknown run %s", runID)
	}
	return nil
}

// RecordArtifact stores a, replacing the previous record of the same
// artifact and its dependency set.
func (l *Ledger) RecordArtifact(a *ArtifactRecord) error {
	if a.WrittenAt.IsZero() {
		a.WrittenAt = l.now().UTC()
	}
	return l.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			DELETE FROM artifact_dependencies WHERE location = ? AND binary_name = ?
		`, a.Location, a.BinaryName); err != nil {
			return fmt.Errorf("failed to replace dependencies of %s: %w", a.BinaryName, err)
		}
		if _, err := tx.Exec(`
			DELETE FROM artifacts WHERE location = ? AND binary_name = ?
		`, a.Location, a.BinaryName); err != nil {
			return fmt.Errorf("failed to replace artifact %s: %w", a.BinaryName, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO artifacts (location, binary_name, package, file, sha256, size, run_id, written_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, a.Location, a.BinaryName, a.Package, a.File, a.SHA256, a.Size, a.RunID,
			a.WrittenAt.Format(timeFormat)); err != nil {
			return fmt.Errorf("failed to record artifact %s: %w", a.BinaryName, err)
		}
		for _, seed := range a.Dependencies {
			if _, err := tx.Exec(`
				INSERT OR IGNORE INTO artifact_dependencies (location, binary_name, seed)
				VALUES (?, ?, ?)
			`, a.Location, a.BinaryName, seed); err != nil {
				return fmt.Errorf("failed to record dependency of %s: %w", a.BinaryName, err)
			}
		}
		return nil
	})
}

// Artifact returns the record of one artifact, or nil when it is unknown.
func (l *Ledger) Artifact(location, binaryName string) (*ArtifactRecord, error) {
	recs, err := l.queryArtifacts(`
		SELECT location, binary_name, package, file, sha256, size, run_id, written_at
		FROM artifacts WHERE location = ? AND binary_name = ?
	`, location, binaryName)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

// Artifacts returns every recorded artifact ordered by location and name.
func (l *Ledger) Artifacts() ([]ArtifactRecord, error) {
	return l.queryArtifacts(`
		SELECT location, binary_name, package, file, sha256, size, run_id, written_at
		FROM artifacts ORDER BY location, binary_name
	`)
}

// Stale returns the artifacts whose dependency set contains any of seeds,
// ordered by location and name. These are the artifacts to regenerate when
// one of those seeds changes.
func (l *Ledger) Stale(seeds []string) ([]ArtifactRecord, error) {
	if len(seeds) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seeds)), ",")
	args := make([]interface{}, len(seeds))
	for i, s := range seeds {
		args[i] = s
	}
	return l.queryArtifacts(`
		SELECT a.location, a.binary_name, a.package, a.file, a.sha256, a.size, a.run_id, a.written_at
		FROM artifacts a
		WHERE EXISTS (
			SELECT 1 FROM artifact_dependencies d
			WHERE d.location = a.location AND d.binary_name = a.binary_name
			  AND d.seed IN (`+placeholders+`)
		)
		ORDER BY a.location, a.binary_name
	`, args...)
}

func (l *Ledger) queryArtifacts(query string, args ...interface{}) ([]ArtifactRecord, error) {
	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}
	defer rows.Close()

	var out []ArtifactRecord
	for rows.Next() {
		var a ArtifactRecord
		var writtenAt string
		if err := rows.Scan(&a.Location, &a.BinaryName, &a.Package, &a.File, &a.SHA256, &a.Size, &a.RunID, &writtenAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		if a.WrittenAt, err = time.Parse(timeFormat, writtenAt); err != nil {
			return nil, fmt.Errorf("invalid written_at format: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		deps, err := l.dependencies(out[i].Location, out[i].BinaryName)
		if err != nil {
			return nil, err
		}
		out[i].Dependencies = deps
	}
	return out, nil
}

func (l *Ledger) dependencies(location, binaryName string) ([]string, error) {
	rows, err := l.db.Query(`
		SELECT seed FROM artifact_dependencies WHERE location = ? AND binary_name = ?
	`, location, binaryName)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies: %w", err)
	}
	defer rows.Close()

	var deps []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		deps = append(deps, s)
	}
	sort.Strings(deps)
	return deps, rows.Err()
}

// Runs returns the most recent runs, newest first. limit <= 0 returns all.
func (l *Ledger) Runs(limit int) ([]Run, error) {
	query := `
		SELECT run_id, tool_version, status, seed_count, artifact_count, started_at, finished_at
		FROM runs ORDER BY started_at DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started string
		var finished sql.NullString
		if err := rows.Scan(&r.ID, &r.ToolVersion, &r.Status, &r.Seeds, &r.Artifacts, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeFormat, started); err != nil {
			return nil, fmt.Errorf("invalid started_at format: %w", err)
		}
		if finished.Valid {
			t, err := time.Parse(timeFormat, finished.String)
			if err != nil {
				return nil, fmt.Errorf("invalid finished_at format: %w", err)
			}
			r.FinishedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
