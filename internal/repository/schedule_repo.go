package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"tradeidea/internal/autogen"
	"tradeidea/internal/models"
)

// ScheduleRepository persists auto-generation schedules.
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) LoadActive(ctx context.Context, userID string) (*models.AutoGenerationSchedule, error) {
	var s models.AutoGenerationSchedule
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("id DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, autogen.ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ScheduleRepository) LoadLatest(ctx context.Context, userID string) (*models.AutoGenerationSchedule, error) {
	var s models.AutoGenerationSchedule
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, autogen.ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes an attempt's outcome if the row is still at version.
func (r *ScheduleRepository) Save(ctx context.Context, id uint, version int64, u models.ScheduleUpdate) error {
	updates := map[string]interface{}{
		"next_trigger": u.NextTrigger.UTC(),
		"retry_count":  u.RetryCount,
		"last_error":   nil,
		"version":      gorm.Expr("version + 1"),
	}
	if u.LastError != nil {
		updates["last_error"] = *u.LastError
	}
	if u.LastTriggered != nil {
		updates["last_triggered"] = u.LastTriggered.UTC()
	}

	res := r.db.WithContext(ctx).Model(&models.AutoGenerationSchedule{}).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return autogen.ErrVersionConflict
	}
	return nil
}

// QueryDue returns due schedules ordered by next trigger, oldest first.
func (r *ScheduleRepository) QueryDue(ctx context.Context, now time.Time) ([]models.AutoGenerationSchedule, error) {
	var rows []models.AutoGenerationSchedule
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_paused = ? AND next_trigger <= ?", true, false, now.UTC()).
		Order("next_trigger ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// Replace retires the user's active schedules and inserts s in one transaction.
func (r *ScheduleRepository) Replace(ctx context.Context, s *models.AutoGenerationSchedule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deactivate(tx, s.UserID); err != nil {
			return err
		}
		s.ID = 0
		s.IsActive = true
		s.NextTrigger = s.NextTrigger.UTC()
		if s.Version == 0 {
			s.Version = 1
		}
		return tx.Create(s).Error
	})
}

func (r *ScheduleRepository) DeactivateAll(ctx context.Context, userID string) error {
	return deactivate(r.db.WithContext(ctx), userID)
}

func deactivate(db *gorm.DB, userID string) error {
	return db.Model(&models.AutoGenerationSchedule{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]interface{}{
			"is_active": false,
			"version":   gorm.Expr("version + 1"),
		}).Error
}

// SetPaused toggles the pause flag without touching next_trigger.
func (r *ScheduleRepository) SetPaused(ctx context.Context, userID string, paused bool) error {
	res := r.db.WithContext(ctx).Model(&models.AutoGenerationSchedule{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]interface{}{
			"is_paused": paused,
			"version":   gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return autogen.ErrScheduleNotFound
	}
	return nil
}
