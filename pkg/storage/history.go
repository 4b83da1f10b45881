package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
)

// createdLayout is fixed width so rows sort by time as text.
const createdLayout = "2006-01-02T15:04:05.000000000Z"

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// HistoryStore keeps completed analyses in SQLite.
type HistoryStore struct {
	db *sql.DB
}

var _ evaluation.HistoryRepository = (*HistoryStore)(nil)

// OpenHistory opens (creating if needed) the history database at path.
func OpenHistory(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	// Pragmas are per connection; one connection also serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}

	s := &HistoryStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: migration: %w", err)
	}
	return s, nil
}

// OpenHistory opens the workspace history database.
func (r *FilesystemRepository) OpenHistory() (*HistoryStore, error) {
	path, err := r.ResolvePath(HistoryFile)
	if err != nil {
		return nil, err
	}
	return OpenHistory(path)
}

func (s *HistoryStore) Close() error {
	return s.db.Close()
}

func (s *HistoryStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS analyses (
			run_id      TEXT PRIMARY KEY,
			input_path  TEXT NOT NULL,
			output_path TEXT NOT NULL DEFAULT '',
			provider    TEXT NOT NULL DEFAULT '',
			total_score REAL NOT NULL,
			grade       TEXT NOT NULL,
			warnings    INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL,
			result_json TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at DESC);
	`)
	return err
}

// Record stores one completed analysis. Recording the same run twice
// replaces the earlier row.
func (s *HistoryStore) Record(ctx context.Context, rec evaluation.RunRecord) error {
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("history: marshal result: %w", err)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO analyses
			(run_id, input_path, output_path, provider, total_score, grade, warnings, created_at, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.InputPath, rec.OutputPath, rec.Provider, rec.TotalScore, rec.Grade,
		rec.Warnings, created.UTC().Format(createdLayout), string(result),
	)
	if err != nil {
		return fmt.Errorf("history: record %s: %w", rec.RunID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]evaluation.RunRecord, error) {
	query := `SELECT run_id, input_path, output_path, provider, total_score, grade, warnings, created_at, result_json
		FROM analyses ORDER BY created_at DESC, run_id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []evaluation.RunRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns one run by id.
func (s *HistoryStore) Get(ctx context.Context, runID string) (evaluation.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT run_id, input_path, output_path, provider, total_score, grade, warnings, created_at, result_json
		FROM analyses WHERE run_id = ?`, runID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("history: run %s: %w", runID, evaluation.ErrNotFound)
	}
	return rec, err
}

// Stats aggregates every recorded run.
func (s *HistoryStore) Stats(ctx context.Context) (evaluation.HistoryStats, error) {
	stats := evaluation.HistoryStats{ByGrade: map[string]int{}}

	var avg, maxScore, minScore sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(total_score), MAX(total_score), MIN(total_score) FROM analyses`,
	).Scan(&stats.Count, &avg, &maxScore, &minScore)
	if err != nil {
		return stats, fmt.Errorf("history: stats: %w", err)
	}
	stats.Average, stats.Max, stats.Min = avg.Float64, maxScore.Float64, minScore.Float64

	rows, err := s.db.QueryContext(ctx, `SELECT grade, COUNT(*) FROM analyses GROUP BY grade`)
	if err != nil {
		return stats, fmt.Errorf("history: grade counts: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor
	for rows.Next() {
		var grade string
		var n int
		if err := rows.Scan(&grade, &n); err != nil {
			return stats, fmt.Errorf("history: grade counts: %w", err)
		}
		stats.ByGrade[grade] = n
	}
	return stats, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (evaluation.RunRecord, error) {
	var (
		rec     evaluation.RunRecord
		created string
		result  string
	)
	if err := row.Scan(&rec.RunID, &rec.InputPath, &rec.OutputPath, &rec.Provider,
		&rec.TotalScore, &rec.Grade, &rec.Warnings, &created, &result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("history: scan: %w", err)
	}
	if t, err := time.Parse(createdLayout, created); err == nil {
		rec.CreatedAt = t
	}
	if err := json.Unmarshal([]byte(result), &rec.Result); err != nil {
		return rec, fmt.Errorf("history: decode result of %s: %w", rec.RunID, err)
	}
	return rec, nil
}
