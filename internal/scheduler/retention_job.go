package scheduler

import (
	"time"

	"github.com/aristath/fusor/internal/database"
	"github.com/aristath/fusor/internal/modules/reports"
	"github.com/rs/zerolog"
)

// ReportRetentionJob prunes analysis reports older than the retention window
// and checkpoints the WAL afterwards so the file does not grow unbounded.
type ReportRetentionJob struct {
	repo          *reports.Repository
	db            *database.DB
	retentionDays int
	log           zerolog.Logger
}

// NewReportRetentionJob creates a retention job
func NewReportRetentionJob(repo *reports.Repository, db *database.DB, retentionDays int, log zerolog.Logger) *ReportRetentionJob {
	return &ReportRetentionJob{
		repo:          repo,
		db:            db,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "report_retention").Logger(),
	}
}

// Name returns the job name
func (j *ReportRetentionJob) Name() string {
	return "report_retention"
}

// Run prunes old reports and checkpoints the WAL
func (j *ReportRetentionJob) Run() error {
	cutoff := time.Now().UTC().AddDate(0, 0, -j.retentionDays)

	deleted, err := j.repo.DeleteOlderThan(cutoff)
	if err != nil {
		return err
	}

	if deleted > 0 {
		if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
			return err
		}
	}

	j.log.Debug().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Retention pass finished")
	return nil
}
