// Package store persists assessment answers and score reports in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/dshills/nipscore/internal/scoring"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when an assessment has no stored answers or report.
var ErrNotFound = errors.New("not found")

// Assessment is a stored answer set with its completion time. CompletedAt is
// zero when the source did not record one.
type Assessment struct {
	ID          string
	CompletedAt time.Time
	Answers     scoring.AnswerSet
}

// Store wraps SQLite access for assessment responses and results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store.Open: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store.Open: %w", err)
	}
	// A single connection serializes writers from parallel batch workers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store.Open: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS responses (
			assessment_id TEXT NOT NULL,
			question_id INTEGER NOT NULL,
			raw_value TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (assessment_id, question_id)
		);`,
		`CREATE TABLE IF NOT EXISTS assessments (
			assessment_id TEXT PRIMARY KEY,
			completed_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS reports (
			assessment_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			catalog_name TEXT NOT NULL,
			catalog_version TEXT NOT NULL,
			overall_score INTEGER NOT NULL,
			pattern_count INTEGER NOT NULL,
			report_json TEXT NOT NULL,
			scored_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reports_run_id ON reports(run_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveAnswers replaces the stored answer set of an assessment and records when
// it was completed. A zero completedAt is stored as unknown.
func (s *Store) SaveAnswers(ctx context.Context, assessmentID string, answers scoring.AnswerSet, completedAt time.Time) (err error) {
	if assessmentID == "" {
		return errors.New("store.SaveAnswers: assessment id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store.SaveAnswers: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM responses WHERE assessment_id = ?`, assessmentID); err != nil {
		return fmt.Errorf("store.SaveAnswers: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for id, raw := range answers {
		var data []byte
		data, err = json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("store.SaveAnswers: question %d: %w", id, err)
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO responses (assessment_id, question_id, raw_value, updated_at) VALUES (?, ?, ?, ?)`,
			assessmentID, id, string(data), now,
		); err != nil {
			return fmt.Errorf("store.SaveAnswers: %w", err)
		}
	}
	completed := ""
	if !completedAt.IsZero() {
		completed = completedAt.UTC().Format(time.RFC3339Nano)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO assessments (assessment_id, completed_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(assessment_id) DO UPDATE SET
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`,
		assessmentID, completed, now,
	); err != nil {
		return fmt.Errorf("store.SaveAnswers: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("store.SaveAnswers: %w", err)
	}
	return nil
}

// LoadAssessment returns the stored answers and completion time of an
// assessment.
func (s *Store) LoadAssessment(ctx context.Context, assessmentID string) (*Assessment, error) {
	answers, err := s.LoadAnswers(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	a := &Assessment{ID: assessmentID, Answers: answers}

	var completed string
	err = s.db.QueryRowContext(ctx,
		`SELECT completed_at FROM assessments WHERE assessment_id = ?`, assessmentID).Scan(&completed)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return a, nil
	case err != nil:
		return nil, fmt.Errorf("store.LoadAssessment: %w", err)
	}
	if completed != "" {
		a.CompletedAt, err = time.Parse(time.RFC3339Nano, completed)
		if err != nil {
			return nil, fmt.Errorf("store.LoadAssessment: completed_at: %w", err)
		}
	}
	return a, nil
}

// LoadAnswers returns the stored answer set of an assessment. Raw values are
// decoded from JSON, so numbers arrive as float64 and option objects as maps.
func (s *Store) LoadAnswers(ctx context.Context, assessmentID string) (scoring.AnswerSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, raw_value FROM responses WHERE assessment_id = ?`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("store.LoadAnswers: %w", err)
	}
	defer rows.Close()

	answers := scoring.AnswerSet{}
	for rows.Next() {
		var (
			id  int
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("store.LoadAnswers: %w", err)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("store.LoadAnswers: question %d: %w", id, err)
		}
		answers[id] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.LoadAnswers: %w", err)
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("store.LoadAnswers: %s: %w", assessmentID, ErrNotFound)
	}
	return answers, nil
}

// ListAssessments returns the ids of assessments with stored answers, sorted.
// With pendingOnly set, assessments that already have a report are skipped.
func (s *Store) ListAssessments(ctx context.Context, pendingOnly bool) ([]string, error) {
	query := `SELECT DISTINCT assessment_id FROM responses ORDER BY assessment_id`
	if pendingOnly {
		query = `SELECT DISTINCT r.assessment_id FROM responses r
			LEFT JOIN reports p ON p.assessment_id = r.assessment_id
			WHERE p.assessment_id IS NULL
			ORDER BY r.assessment_id`
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store.ListAssessments: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store.ListAssessments: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveReport stores a report verbatim, replacing any earlier result for the
// same assessment.
func (s *Store) SaveReport(ctx context.Context, runID string, r *scoring.Report) error {
	if r.AssessmentID == "" {
		return errors.New("store.SaveReport: report has no assessment id")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("store.SaveReport: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (assessment_id, run_id, catalog_name, catalog_version, overall_score, pattern_count, report_json, scored_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(assessment_id) DO UPDATE SET
			run_id = excluded.run_id,
			catalog_name = excluded.catalog_name,
			catalog_version = excluded.catalog_version,
			overall_score = excluded.overall_score,
			pattern_count = excluded.pattern_count,
			report_json = excluded.report_json,
			scored_at = excluded.scored_at`,
		r.AssessmentID,
		runID,
		r.CatalogName,
		r.CatalogVersion,
		r.OverallScore,
		len(r.PatternScores),
		string(data),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store.SaveReport: %w", err)
	}
	return nil
}

// LoadReport returns the stored report of an assessment.
func (s *Store) LoadReport(ctx context.Context, assessmentID string) (*scoring.Report, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT report_json FROM reports WHERE assessment_id = ?`, assessmentID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store.LoadReport: %s: %w", assessmentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store.LoadReport: %w", err)
	}
	var r scoring.Report
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("store.LoadReport: %w", err)
	}
	return &r, nil
}

// RunSummary counts the reports written by one batch run.
func (s *Store) RunSummary(ctx context.Context, runID string) (reports int, empty int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN pattern_count = 0 THEN 1 ELSE 0 END), 0) FROM reports WHERE run_id = ?`,
		runID).Scan(&reports, &empty)
	if err != nil {
		return 0, 0, fmt.Errorf("store.RunSummary: %w", err)
	}
	return reports, empty, nil
}
