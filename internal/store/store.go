package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lakespend/lakespend/internal/pkg/errors"
	"github.com/lakespend/lakespend/internal/pkg/metrics"
)

// Store persists compliance scan history in SQLite. Tag reads and writes
// never touch it; only scheduled scan outcomes land here.
type Store struct {
	sql *sql.DB
}

// ScanRecord is one persisted compliance scan
type ScanRecord struct {
	ID                 string    `json:"id"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
	TotalResources     int       `json:"total_resources"`
	CompliantResources int       `json:"compliant_resources"`
	ComplianceRate     float64   `json:"compliance_rate"`
	Report             []byte    `json:"-"`
}

// Open opens the scan history database, creating the schema if needed
func Open(path string) (*Store, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	s := &Store{sql: d}
	if err := s.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing database handle; the caller owns the schema
func NewWithDB(db *sql.DB) *Store {
	return &Store{sql: db}
}

func (s *Store) Close() error { return s.sql.Close() }

// Ping verifies the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.sql.PingContext(ctx)
}

func (s *Store) migrate() error {
	_, err := s.sql.Exec(`
CREATE TABLE IF NOT EXISTS compliance_scans (
    id TEXT PRIMARY KEY,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL,
    total_resources INTEGER NOT NULL,
    compliant_resources INTEGER NOT NULL,
    compliance_rate REAL NOT NULL,
    report TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_compliance_scans_started_at
    ON compliance_scans(started_at DESC);
`)
	return err
}

// SaveScan persists one scan outcome
func (s *Store) SaveScan(ctx context.Context, rec *ScanRecord) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "compliance_scans", time.Since(start)) }()

	_, err := s.sql.ExecContext(ctx, `
INSERT INTO compliance_scans (id, started_at, finished_at, total_resources, compliant_resources, compliance_rate, report)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		rec.ID, rec.StartedAt.UTC(), rec.FinishedAt.UTC(),
		rec.TotalResources, rec.CompliantResources, rec.ComplianceRate,
		string(rec.Report),
	)
	if err != nil {
		return errors.Database("failed to save scan", err)
	}
	return nil
}

// ListScans returns the most recent scans without their full reports.
// The limit is clamped to 100; zero or negative means the default of 20.
func (s *Store) ListScans(ctx context.Context, limit int) ([]ScanRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "compliance_scans", time.Since(start)) }()

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := s.sql.QueryContext(ctx, `
SELECT id, started_at, finished_at, total_resources, compliant_resources, compliance_rate
FROM compliance_scans
ORDER BY started_at DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, errors.Database("failed to list scans", err)
	}
	defer rows.Close()

	out := make([]ScanRecord, 0, limit)
	for rows.Next() {
		var rec ScanRecord
		if err := rows.Scan(&rec.ID, &rec.StartedAt, &rec.FinishedAt,
			&rec.TotalResources, &rec.CompliantResources, &rec.ComplianceRate); err != nil {
			return nil, errors.Database("failed to scan row", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Database("failed to list scans", err)
	}
	return out, nil
}

// GetScan returns one scan with its full report
func (s *Store) GetScan(ctx context.Context, id string) (*ScanRecord, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "compliance_scans", time.Since(start)) }()

	var rec ScanRecord
	var report string
	err := s.sql.QueryRowContext(ctx, `
SELECT id, started_at, finished_at, total_resources, compliant_resources, compliance_rate, report
FROM compliance_scans
WHERE id = ?
`, id).Scan(&rec.ID, &rec.StartedAt, &rec.FinishedAt,
		&rec.TotalResources, &rec.CompliantResources, &rec.ComplianceRate, &report)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("scan")
	}
	if err != nil {
		return nil, errors.Database("failed to get scan", err)
	}
	rec.Report = []byte(report)
	return &rec, nil
}
