package models

import "time"

// SweepRun records one pass of the auto-generation sweep.
type SweepRun struct {
	ID         uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Source     string         `gorm:"column:source;size:30;index:idx_sweep_runs_source_status,priority:1" json:"source"`
	Status     string         `gorm:"column:status;size:30;index:idx_sweep_runs_source_status,priority:2" json:"status"`
	DueCount   int            `gorm:"column:due_count;default:0" json:"due_count"`
	Processed  int            `gorm:"column:processed;default:0" json:"processed"`
	Failed     int            `gorm:"column:failed;default:0" json:"failed"`
	Skipped    int            `gorm:"column:skipped;default:0" json:"skipped"`
	LastError  string         `gorm:"column:last_error;type:text" json:"last_error"`
	StartedAt  time.Time      `gorm:"column:started_at;index" json:"started_at"`
	FinishedAt *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	Items      []SweepRunItem `gorm:"foreignKey:RunID" json:"items,omitempty"`
}

func (SweepRun) TableName() string {
	return "sweep_runs"
}

// SweepRunItem is the outcome for one user within a sweep.
type SweepRunItem struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RunID     uint      `gorm:"column:run_id;index:idx_sweep_run_items_run_user,priority:1" json:"run_id"`
	UserID    string    `gorm:"column:user_id;size:191;index:idx_sweep_run_items_run_user,priority:2" json:"user_id"`
	Outcome   string    `gorm:"column:outcome;size:30" json:"outcome"`
	Error     string    `gorm:"column:error;type:text" json:"error,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (SweepRunItem) TableName() string {
	return "sweep_run_items"
}
