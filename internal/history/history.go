// Package history records summaries of pipeline runs. It sits beside the
// pipeline and is only reached from the HTTP layer.
package history

import (
	"context"
	"fmt"

	"github.com/Conceptual-Machines/lyricist-api/internal/errs"
	"github.com/Conceptual-Machines/lyricist-api/internal/models"
	"github.com/Conceptual-Machines/lyricist-api/internal/pipeline"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Store persists pipeline runs
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over db
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create saves a run summary
func (s *Store) Create(ctx context.Context, run *models.PipelineRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save pipeline run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. An empty userID lists
// every user's runs.
func (s *Store) List(ctx context.Context, userID string, limit int) ([]models.PipelineRun, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	query := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var runs []models.PipelineRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list pipeline runs: %w", err)
	}
	return runs, nil
}

// Get returns one run by id
func (s *Store) Get(ctx context.Context, id string) (*models.PipelineRun, error) {
	var run models.PipelineRun
	if err := s.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// Summarize builds the row for a finished run. runErr is the error Run
// returned, if any.
func Summarize(requestID, userID string, req pipeline.Request, opts pipeline.RunOptions, result *pipeline.Result, runErr error) *models.PipelineRun {
	run := &models.PipelineRun{
		ID:        result.RunID,
		RequestID: requestID,
		UserID:    userID,
		Model:     req.Model,
		Debate:    opts.Debate,
		Status:    models.RunStatusDone,
	}

	for _, stage := range result.Reports {
		if run.Model == "" && len(stage.Report.Attempts) > 0 {
			run.Model = stage.Report.Attempts[0].Model
		}
		run.Attempts += len(stage.Report.Attempts)
		if stage.Report.UsedFallback {
			run.UsedFallback = true
		}
		if stage.Report.Model != "" {
			run.ServedBy = stage.Report.Model
		}
	}
	if result.Draft != nil {
		run.Title = result.Draft.Title
	}
	if result.Consensus != nil {
		run.FinalVerdict = string(result.Consensus.FinalVerdict)
	}
	if result.Review != nil {
		run.ReviewDegraded = result.Review.Degraded
	}
	if result.Output != nil {
		run.Score = result.Output.ComplianceReport.Score
	}
	run.DurationMS = result.Duration.Milliseconds()

	if runErr != nil {
		run.Status = models.RunStatusFailed
		run.ErrorKind = string(errs.KindOf(runErr))
	}
	return run
}
