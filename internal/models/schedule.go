package models

import (
	"database/sql"
	"time"
)

// AutoGenerationSchedule is the per-user auto-generation schedule.
// At most one row per user has IsActive set; retired rows are kept with a stale NextTrigger.
type AutoGenerationSchedule struct {
	ID            uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID        string         `gorm:"column:user_id;size:191;not null;index:idx_autogen_user_active,priority:1" json:"user_id"`
	IntervalType  string         `gorm:"column:interval_type;size:20;not null" json:"interval_type"`
	ScheduledTime sql.NullString `gorm:"column:scheduled_time;size:5" json:"scheduled_time"`
	Timezone      string         `gorm:"column:timezone;size:64;not null;default:'UTC'" json:"timezone"`
	Weekday       sql.NullInt16  `gorm:"column:weekday" json:"weekday"`
	IsActive      bool           `gorm:"column:is_active;not null;default:false;index:idx_autogen_user_active,priority:2;index:idx_autogen_due,priority:1" json:"is_active"`
	IsPaused      bool           `gorm:"column:is_paused;not null;default:false;index:idx_autogen_due,priority:2" json:"is_paused"`
	NextTrigger   time.Time      `gorm:"column:next_trigger;not null;index:idx_autogen_due,priority:3" json:"next_trigger"`
	RetryCount    int            `gorm:"column:retry_count;not null;default:0" json:"retry_count"`
	LastError     sql.NullString `gorm:"column:last_error;type:text" json:"last_error"`
	LastTriggered sql.NullTime   `gorm:"column:last_triggered" json:"last_triggered"`
	Version       int64          `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (AutoGenerationSchedule) TableName() string {
	return "auto_generation_schedules"
}

// Due reports whether the schedule should fire at now.
func (s *AutoGenerationSchedule) Due(now time.Time) bool {
	return s.IsActive && !s.IsPaused && !now.Before(s.NextTrigger)
}

// ScheduleUpdate carries the fields written back after a generation attempt.
// LastError nil clears the column; LastTriggered nil leaves it unchanged.
type ScheduleUpdate struct {
	NextTrigger   time.Time
	RetryCount    int
	LastError     *string
	LastTriggered *time.Time
}
