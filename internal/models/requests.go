package models

// APIResponse is the envelope for every JSON response.
type APIResponse struct {
	Status bool        `json:"status"`
	Msg    string      `json:"msg"`
	Obj    interface{} `json:"obj"`
}

// PaginatedResponse wraps list results with pagination info.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// --- Auto-generation Request Payloads ---

type AutoGenerationSettingsRequest struct {
	Enabled  bool   `json:"enabled"`
	Interval string `json:"interval"`
	Time     string `json:"time,omitempty"`
	Timezone string `json:"timezone"`
	Paused   bool   `json:"paused,omitempty"`
	// Weekday pins weekly schedules, 0 = Sunday.
	Weekday  *int   `json:"weekday,omitempty"`
}

type PauseRequest struct {
	Paused bool `json:"paused"`
}

// --- Profile Request Payloads ---

type ProfileRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	TelegramChatID int64  `json:"telegram_chat_id,omitempty"`
	// NotifyEmail defaults to true when omitted.
	NotifyEmail    *bool  `json:"notify_email,omitempty"`
	NotifyTelegram bool   `json:"notify_telegram"`
}
