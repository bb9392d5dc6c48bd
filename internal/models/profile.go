package models

import "database/sql"

// Profile holds the contact details and notification preferences of a user.
// Schedule state lives only on AutoGenerationSchedule.
type Profile struct {
	ID             string        `gorm:"column:id;primaryKey;size:191" json:"id"`
	Username       string        `gorm:"column:username;size:255" json:"username"`
	Email          string        `gorm:"column:email;size:255" json:"email"`
	TelegramChatID sql.NullInt64 `gorm:"column:telegram_chat_id" json:"telegram_chat_id"`
	NotifyEmail    bool          `gorm:"column:notify_email;not null" json:"notify_email"`
	NotifyTelegram bool          `gorm:"column:notify_telegram;not null" json:"notify_telegram"`
}

func (Profile) TableName() string {
	return "profiles"
}
