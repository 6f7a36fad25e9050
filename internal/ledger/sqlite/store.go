// Package sqlite is the durable SQLite implementation of the detection
// ledger.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/meghraj-labs/auris/internal/domain"
	"github.com/meghraj-labs/auris/internal/ledger"
)

// Store persists detection records in a SQLite database.
type Store struct {
	db *sql.DB
}

var _ ledger.Store = (*Store)(nil)

// New opens (creating if necessary) the ledger database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	// SQLite permits one writer at a time; a single pooled connection
	// avoids SQLITE_BUSY under concurrent appends.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS detections (
			id TEXT PRIMARY KEY,
			language TEXT NOT NULL,
			result TEXT,
			confidence REAL,
			model_version TEXT,
			caller_id TEXT NOT NULL,
			outcome TEXT NOT NULL,
			error_kind TEXT,
			latency_ms INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_language ON detections(language)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_created ON detections(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_result ON detections(result)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Append writes one detection record. The caller's context bounds the
// write so a stuck database cannot stall the response path.
func (s *Store) Append(ctx context.Context, rec *ledger.Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO detections
		(id, language, result, confidence, model_version, caller_id, outcome, error_kind, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var result, errorKind sql.NullString
	var confidence sql.NullFloat64
	if rec.Outcome == ledger.OutcomeSuccess {
		result = sql.NullString{String: string(rec.Result), Valid: true}
		confidence = sql.NullFloat64{Float64: rec.Confidence, Valid: true}
	}
	if rec.ErrorKind != "" {
		errorKind = sql.NullString{String: string(rec.ErrorKind), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Language, result, confidence, rec.ModelVersion,
		rec.CallerID, string(rec.Outcome), errorKind,
		rec.Latency.Milliseconds(), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append detection record: %w", err)
	}
	return nil
}

// Query returns matching records, newest first.
func (s *Store) Query(ctx context.Context, f ledger.Filter) ([]*ledger.Record, error) {
	var (
		conds []string
		args  []any
	)
	if f.Language != "" {
		conds = append(conds, "language = ?")
		args = append(args, f.Language)
	}
	if f.Result != "" {
		conds = append(conds, "result = ?")
		args = append(args, string(f.Result))
	}
	if !f.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.Since)
	}
	if !f.Until.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, f.Until)
	}

	query := `SELECT id, language, result, confidence, model_version, caller_id, outcome, error_kind, latency_ms, created_at
		FROM detections`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var records []*ledger.Record
	for rows.Next() {
		var (
			rec        ledger.Record
			result     sql.NullString
			confidence sql.NullFloat64
			errorKind  sql.NullString
			latencyMS  int64
			outcome    string
		)
		if err := rows.Scan(&rec.ID, &rec.Language, &result, &confidence,
			&rec.ModelVersion, &rec.CallerID, &outcome, &errorKind,
			&latencyMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan detection record: %w", err)
		}
		if result.Valid {
			rec.Result = domain.Label(result.String)
		}
		if confidence.Valid {
			rec.Confidence = confidence.Float64
		}
		if errorKind.Valid {
			rec.ErrorKind = domain.ErrorKind(errorKind.String)
		}
		rec.Outcome = ledger.Outcome(outcome)
		rec.Latency = time.Duration(latencyMS) * time.Millisecond
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
