package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tradeidea/internal/autogen"
	"tradeidea/internal/repository"
)

// CronHandler lets an external timer drive the sweep and inspect its history.
type CronHandler struct {
	sweeper *autogen.Sweeper
	runs    *repository.SweepRunRepository
	logger  *zap.Logger
}

func NewCronHandler(sweeper *autogen.Sweeper, runs *repository.SweepRunRepository, logger *zap.Logger) *CronHandler {
	return &CronHandler{sweeper: sweeper, runs: runs, logger: logger}
}

func (h *CronHandler) Sweep(c echo.Context) error {
	// Detached so a caller timeout cannot abandon a run mid-write.
	res, err := h.sweeper.SweepFrom(context.WithoutCancel(c.Request().Context()), autogen.SourceHTTP)
	if err != nil {
		h.logger.Error("Sweep failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":    false,
			"msg":       "Failed to fetch due schedules",
			"processed": 0,
			"errors":    0,
		})
	}
	return successResponse(c, "Auto-generation processed", map[string]interface{}{
		"processed":   res.Processed,
		"errors":      res.Errors,
		"skipped":     res.Skipped,
		"duration_ms": res.Duration.Milliseconds(),
	})
}

func (h *CronHandler) ListRuns(c echo.Context) error {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)
	if limit > 100 {
		limit = 100
	}

	runs, total, err := h.runs.List(c.Request().Context(), page, limit)
	if err != nil {
		h.logger.Error("Failed to list sweep runs", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to load sweep runs")
	}
	return successResponse(c, "Successful", paginatedResponse(runs, total, page, limit))
}

func (h *CronHandler) GetRun(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("rid"), 10, 64)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid run id")
	}
	run, err := h.runs.FindWithItems(c.Request().Context(), uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorResponse(c, http.StatusNotFound, "Sweep run not found")
	}
	if err != nil {
		h.logger.Error("Failed to load sweep run", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to load sweep run")
	}
	return successResponse(c, "Successful", run)
}
