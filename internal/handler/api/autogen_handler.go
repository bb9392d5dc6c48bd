package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tradeidea/internal/autogen"
	"tradeidea/internal/models"
)

// AutoGenerationHandler exposes a user's schedule: status, settings, pause and
// manual trigger.
type AutoGenerationHandler struct {
	orchestrator *autogen.Orchestrator
	logger       *zap.Logger
}

func NewAutoGenerationHandler(orchestrator *autogen.Orchestrator, logger *zap.Logger) *AutoGenerationHandler {
	return &AutoGenerationHandler{orchestrator: orchestrator, logger: logger}
}

func (h *AutoGenerationHandler) Status(c echo.Context) error {
	view, err := h.orchestrator.Status(c.Request().Context(), c.Param("id"))
	if err != nil {
		return autogenError(c, h.logger, err)
	}
	return successResponse(c, "Successful", view)
}

func (h *AutoGenerationHandler) UpdateSettings(c echo.Context) error {
	var req models.AutoGenerationSettingsRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body")
	}

	settings := autogen.Settings{
		Enabled:  req.Enabled,
		Interval: req.Interval,
		Time:     req.Time,
		Timezone: req.Timezone,
		Paused:   req.Paused,
	}
	if req.Weekday != nil {
		wd := time.Weekday(*req.Weekday)
		settings.Weekday = &wd
	}

	view, err := h.orchestrator.UpdateSettings(c.Request().Context(), c.Param("id"), settings)
	if err != nil {
		return autogenError(c, h.logger, err)
	}
	return successResponse(c, "Settings updated", view)
}

func (h *AutoGenerationHandler) SetPaused(c echo.Context) error {
	var req models.PauseRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body")
	}

	view, err := h.orchestrator.SetPaused(c.Request().Context(), c.Param("id"), req.Paused)
	if err != nil {
		return autogenError(c, h.logger, err)
	}
	msg := "Auto-generation resumed"
	if req.Paused {
		msg = "Auto-generation paused"
	}
	return successResponse(c, msg, view)
}

// Trigger runs one attempt now. A failed generation still answers 200 with
// status false, since the schedule was updated and the user notified.
func (h *AutoGenerationHandler) Trigger(c echo.Context) error {
	res, err := h.orchestrator.RunForUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return autogenError(c, h.logger, err)
	}
	if !res.Success {
		return c.JSON(http.StatusOK, models.APIResponse{Status: false, Msg: res.Error, Obj: res})
	}
	return successResponse(c, "Trade idea generated", res)
}
