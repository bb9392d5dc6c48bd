package notify

import (
	"context"
	"fmt"
	"html"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"tradeidea/internal/autogen"
	"tradeidea/internal/models"
)

// TelegramChannel sends events as bot messages. The bot runs offline: it
// only calls sendMessage and never polls for updates.
type TelegramChannel struct {
	bot    *tele.Bot
	logger *zap.Logger
}

// NewTelegramChannel returns nil when token is empty.
func NewTelegramChannel(token string, logger *zap.Logger) (*TelegramChannel, error) {
	if token == "" {
		return nil, nil
	}
	return newTelegramChannel(token, "", logger)
}

func newTelegramChannel(token, apiURL string, logger *zap.Logger) (*TelegramChannel, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:   token,
		URL:     apiURL,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramChannel{bot: bot, logger: logger.Named("telegram")}, nil
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Enabled(p *models.Profile) bool {
	return p.NotifyTelegram && p.TelegramChatID.Valid && p.TelegramChatID.Int64 != 0
}

// Send ignores ctx; telebot has no per-call context.
func (c *TelegramChannel) Send(_ context.Context, p *models.Profile, event autogen.Event) error {
	text := fmt.Sprintf("%s <b>%s</b>\n%s", telegramIcon(event.Kind), html.EscapeString(event.Title), html.EscapeString(event.Message))
	_, err := c.bot.Send(&tele.Chat{ID: p.TelegramChatID.Int64}, text, tele.ModeHTML, tele.NoPreview)
	return err
}

func telegramIcon(kind autogen.EventKind) string {
	switch kind {
	case autogen.EventSuccess:
		return "✅"
	case autogen.EventRetry:
		return "🔄"
	default:
		return "⚠️"
	}
}
