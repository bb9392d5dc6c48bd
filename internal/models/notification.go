package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is an in-app notification shown in the dashboard bell.
type Notification struct {
	ID        string         `gorm:"column:id;primaryKey;size:36" json:"id"`
	UserID    string         `gorm:"column:user_id;size:191;not null;index:idx_notifications_user_created,priority:1" json:"user_id"`
	Type      string         `gorm:"column:type;size:50;not null" json:"type"`
	Title     string         `gorm:"column:title;size:255;not null" json:"title"`
	Message   string         `gorm:"column:message;type:text" json:"message"`
	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	IsRead    bool           `gorm:"column:is_read;not null;default:false" json:"is_read"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime;index:idx_notifications_user_created,priority:2" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
