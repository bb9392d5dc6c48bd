package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tradeidea/internal/autogen"
	"tradeidea/internal/models"
	"tradeidea/internal/pkg/utils"
)

func successResponse(c echo.Context, msg string, obj interface{}) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Status: true,
		Msg:    msg,
		Obj:    obj,
	})
}

func errorResponse(c echo.Context, code int, msg string) error {
	return c.JSON(code, models.APIResponse{
		Status: false,
		Msg:    msg,
		Obj:    nil,
	})
}

func paginatedResponse(data interface{}, total int64, page, limit int) models.PaginatedResponse {
	return models.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		limit = 50
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return pages
}

func queryInt(c echo.Context, name string, defaultVal int) int {
	return utils.ParsePositiveInt(c.QueryParam(name), defaultVal)
}

// autogenError maps scheduler errors to HTTP responses. Unknown errors are
// logged and hidden behind a generic message.
func autogenError(c echo.Context, logger *zap.Logger, err error) error {
	var perr *autogen.PersistenceError
	switch {
	case errors.Is(err, autogen.ErrInvalidInterval),
		errors.Is(err, autogen.ErrInvalidTime),
		errors.Is(err, autogen.ErrInvalidTimezone):
		return errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, autogen.ErrNotEnabled):
		return errorResponse(c, http.StatusConflict, "Auto-generation is not enabled")
	case errors.Is(err, autogen.ErrPaused):
		return errorResponse(c, http.StatusConflict, "Auto-generation is paused")
	case errors.Is(err, autogen.ErrBusy):
		return errorResponse(c, http.StatusConflict, "Auto-generation is already running")
	case errors.As(err, &perr):
		logger.Error("Failed to persist schedule", zap.String("user_id", perr.UserID), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to save schedule")
	default:
		logger.Error("Auto-generation request failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Internal error")
	}
}
