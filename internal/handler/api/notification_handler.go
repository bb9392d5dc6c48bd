package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tradeidea/internal/autogen"
	"tradeidea/internal/repository"
)

// NotificationHandler serves the in-app notification list.
type NotificationHandler struct {
	repo     *repository.NotificationRepository
	notifier autogen.Notifier
	logger   *zap.Logger
}

func NewNotificationHandler(repo *repository.NotificationRepository, notifier autogen.Notifier, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{repo: repo, notifier: notifier, logger: logger}
}

func (h *NotificationHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("id")

	list, err := h.repo.ListByUser(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to list notifications", zap.String("user_id", userID), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to load notifications")
	}
	unread, err := h.repo.CountUnread(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to count notifications", zap.String("user_id", userID), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to load notifications")
	}

	return successResponse(c, "Successful", map[string]interface{}{
		"notifications": list,
		"unread":        unread,
	})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	err := h.repo.MarkRead(c.Request().Context(), c.Param("id"), c.Param("nid"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorResponse(c, http.StatusNotFound, "Notification not found")
	}
	if err != nil {
		h.logger.Error("Failed to mark notification read", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to update notification")
	}
	return successResponse(c, "Notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	if err := h.repo.MarkAllRead(c.Request().Context(), c.Param("id")); err != nil {
		h.logger.Error("Failed to mark notifications read", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to update notifications")
	}
	return successResponse(c, "Notifications marked as read", nil)
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	err := h.repo.Delete(c.Request().Context(), c.Param("id"), c.Param("nid"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorResponse(c, http.StatusNotFound, "Notification not found")
	}
	if err != nil {
		h.logger.Error("Failed to delete notification", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to delete notification")
	}
	return successResponse(c, "Notification deleted", nil)
}

func (h *NotificationHandler) Clear(c echo.Context) error {
	n, err := h.repo.DeleteAll(c.Request().Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to clear notifications", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to clear notifications")
	}
	return successResponse(c, "Notifications cleared", map[string]int64{"deleted": n})
}

// SendTest pushes a test event through every channel the user has enabled.
func (h *NotificationHandler) SendTest(c echo.Context) error {
	event := autogen.Event{
		Kind:    autogen.EventSuccess,
		Title:   "Test Notification",
		Message: "This is a test to verify that auto-generation notifications are working correctly.",
		Metadata: map[string]interface{}{
			"test": true,
		},
	}
	if err := h.notifier.Notify(c.Request().Context(), c.Param("id"), event); err != nil {
		h.logger.Warn("Test notification failed", zap.String("user_id", c.Param("id")), zap.Error(err))
		return errorResponse(c, http.StatusBadGateway, err.Error())
	}
	return successResponse(c, "Test notification sent", nil)
}
