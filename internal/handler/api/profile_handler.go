package api

import (
	"database/sql"
	"errors"
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tradeidea/internal/models"
	"tradeidea/internal/repository"
)

// ProfileHandler manages contact details used by the notification channels.
type ProfileHandler struct {
	repo   *repository.ProfileRepository
	logger *zap.Logger
}

func NewProfileHandler(repo *repository.ProfileRepository, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{repo: repo, logger: logger}
}

func (h *ProfileHandler) Get(c echo.Context) error {
	p, err := h.repo.FindByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorResponse(c, http.StatusNotFound, "Profile not found")
	}
	if err != nil {
		h.logger.Error("Failed to load profile", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to load profile")
	}
	return successResponse(c, "Successful", p)
}

func (h *ProfileHandler) Update(c echo.Context) error {
	var req models.ProfileRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return errorResponse(c, http.StatusBadRequest, "Invalid email address")
		}
	}

	p := &models.Profile{
		ID:             c.Param("id"),
		Username:       req.Username,
		Email:          req.Email,
		NotifyEmail:    true,
		NotifyTelegram: req.NotifyTelegram,
	}
	if req.NotifyEmail != nil {
		p.NotifyEmail = *req.NotifyEmail
	}
	if req.TelegramChatID != 0 {
		p.TelegramChatID = sql.NullInt64{Int64: req.TelegramChatID, Valid: true}
	}
	if err := h.repo.Upsert(c.Request().Context(), p); err != nil {
		h.logger.Error("Failed to save profile", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to save profile")
	}
	return successResponse(c, "Profile updated", p)
}
