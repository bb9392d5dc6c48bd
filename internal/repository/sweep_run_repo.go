package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tradeidea/internal/autogen"
	"tradeidea/internal/models"
	"tradeidea/internal/pkg/utils"
)

const (
	sweepStatusRunning = "running"
	sweepStatusDone    = "done"
	sweepStatusFailed  = "failed"

	maxErrorLen = 1000
)

// SweepRunRepository keeps the history of auto-generation sweeps.
type SweepRunRepository struct {
	db *gorm.DB
}

func NewSweepRunRepository(db *gorm.DB) *SweepRunRepository {
	return &SweepRunRepository{db: db}
}

func (r *SweepRunRepository) Begin(ctx context.Context, source string, due int, startedAt time.Time) (uint, error) {
	run := &models.SweepRun{
		Source:    source,
		Status:    sweepStatusRunning,
		DueCount:  due,
		StartedAt: startedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return 0, err
	}
	return run.ID, nil
}

// RecordItem stores one user's outcome and bumps the run counters in one
// transaction so a running sweep shows progress.
func (r *SweepRunRepository) RecordItem(ctx context.Context, runID uint, userID, outcome, errMsg string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item := &models.SweepRunItem{
			RunID:   runID,
			UserID:  userID,
			Outcome: outcome,
			Error:   trimErr(errMsg),
		}
		if err := tx.Create(item).Error; err != nil {
			return err
		}

		var column string
		switch outcome {
		case autogen.ItemProcessed:
			column = "processed"
		case autogen.ItemSkipped:
			column = "skipped"
		default:
			column = "failed"
		}
		updates := map[string]interface{}{column: gorm.Expr(column + " + 1")}
		if errMsg != "" && column == "failed" {
			updates["last_error"] = trimErr(errMsg)
		}
		return tx.Model(&models.SweepRun{}).Where("id = ?", runID).Updates(updates).Error
	})
}

func (r *SweepRunRepository) Finish(ctx context.Context, runID uint, res autogen.SweepResult, errMsg string) error {
	status := sweepStatusDone
	updates := map[string]interface{}{
		"processed":   res.Processed,
		"failed":      res.Errors,
		"skipped":     res.Skipped,
		"finished_at": time.Now().UTC(),
	}
	if errMsg != "" {
		status = sweepStatusFailed
		updates["last_error"] = trimErr(errMsg)
	}
	updates["status"] = status
	return r.db.WithContext(ctx).Model(&models.SweepRun{}).Where("id = ?", runID).Updates(updates).Error
}

// List returns a page of runs, newest first, without items.
func (r *SweepRunRepository) List(ctx context.Context, page, limit int) ([]models.SweepRun, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.SweepRun{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var runs []models.SweepRun
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&runs).Error
	return runs, total, err
}

// FindWithItems loads a run and its per-user outcomes.
func (r *SweepRunRepository) FindWithItems(ctx context.Context, id uint) (*models.SweepRun, error) {
	var run models.SweepRun
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&run, id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// DeleteFinishedBefore purges finished runs and their items started before cutoff.
func (r *SweepRunRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old := tx.Model(&models.SweepRun{}).Select("id").
			Where("status <> ? AND started_at < ?", sweepStatusRunning, cutoff.UTC())
		if err := tx.Where("run_id IN (?)", old).Delete(&models.SweepRunItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("status <> ? AND started_at < ?", sweepStatusRunning, cutoff.UTC()).Delete(&models.SweepRun{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

func trimErr(msg string) string {
	return utils.Truncate(msg, maxErrorLen)
}
