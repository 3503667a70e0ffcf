// Package reports persists finished analysis reports so past decisions can
// be reviewed and old rows pruned on a schedule.
package reports

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/fusor/internal/database"
	"github.com/aristath/fusor/internal/modules/analysis"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNotFound indicates no report exists with the requested id
var ErrNotFound = errors.New("report not found")

// Repository handles analysis report persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a report repository and ensures its schema exists
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	r := &Repository{
		db:  db,
		log: log.With().Str("repo", "reports").Logger(),
	}
	if err := r.initSchema(); err != nil {
		return nil, err
	}
	return r, nil
}

// initSchema creates the reports table and its retention index
func (r *Repository) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS analysis_reports (
			id             TEXT PRIMARY KEY,
			created_at     INTEGER NOT NULL,
			version        TEXT NOT NULL,
			recommendation TEXT NOT NULL,
			confidence     REAL NOT NULL,
			coherence      REAL NOT NULL,
			payload        TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_analysis_reports_created_at
			ON analysis_reports(created_at);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize reports schema: %w", err)
	}
	return nil
}

// Save persists a finished analysis report and returns its generated id
func (r *Repository) Save(report *analysis.Report) (string, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode report payload: %w", err)
	}

	id := uuid.New().String()
	err = database.WithTransaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO analysis_reports (
				id, created_at, version, recommendation, confidence, coherence, payload
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			id,
			report.Timestamp.Unix(),
			report.Version,
			report.Recommendation,
			report.ConfidenceLevel,
			report.Coherence,
			string(payload),
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert report: %w", err)
	}

	r.log.Debug().Str("id", id).Str("recommendation", report.Recommendation).Msg("Report saved")
	return id, nil
}

// List returns the most recent reports, newest first
func (r *Repository) List(limit int) ([]StoredReport, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT id, created_at, version, recommendation, confidence, coherence, payload
		FROM analysis_reports
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []StoredReport
	for rows.Next() {
		report, err := scanReport(rows.Scan)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}

// Get returns one report by id
func (r *Repository) Get(id string) (*StoredReport, error) {
	row := r.db.QueryRow(`
		SELECT id, created_at, version, recommendation, confidence, coherence, payload
		FROM analysis_reports
		WHERE id = ?
	`, id)

	report, err := scanReport(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// DeleteOlderThan prunes reports created before the cutoff and returns the
// number of rows removed
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM analysis_reports WHERE created_at < ?`,
		cutoff.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune reports: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned reports: %w", err)
	}

	if deleted > 0 {
		r.log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Old reports pruned")
	}
	return deleted, nil
}

// Count returns the number of stored reports
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM analysis_reports`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}

// scanReport reads one report row through a Scan function
func scanReport(scan func(...interface{}) error) (StoredReport, error) {
	var report StoredReport
	var createdAt int64
	var payload string

	err := scan(&report.ID, &createdAt, &report.Version, &report.Recommendation,
		&report.Confidence, &report.Coherence, &payload)
	if err != nil {
		return StoredReport{}, err
	}

	report.CreatedAt = time.Unix(createdAt, 0).UTC()
	report.Payload = json.RawMessage(payload)
	return report, nil
}
