package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"tradeidea/internal/handler/api"
	"tradeidea/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	AutoGeneration *api.AutoGenerationHandler
	Notification   *api.NotificationHandler
	Profile        *api.ProfileHandler
	Cron           *api.CronHandler
}

// Setup configures all routes for the Echo server.
func Setup(e *echo.Echo, h Handlers, logger *zap.Logger, apiKey, cronSecret string) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.CORS())

	apiGroup := e.Group("/api")

	users := apiGroup.Group("/users/:id", middleware.APIAuth(apiKey))
	users.GET("/auto-generation", h.AutoGeneration.Status)
	users.PUT("/auto-generation", h.AutoGeneration.UpdateSettings)
	users.POST("/auto-generation/pause", h.AutoGeneration.SetPaused)
	users.POST("/auto-generation/trigger", h.AutoGeneration.Trigger)

	users.GET("/notifications", h.Notification.List)
	users.POST("/notifications/read-all", h.Notification.MarkAllRead)
	users.POST("/notifications/test", h.Notification.SendTest)
	users.POST("/notifications/:nid/read", h.Notification.MarkRead)
	users.DELETE("/notifications/:nid", h.Notification.Delete)
	users.DELETE("/notifications", h.Notification.Clear)

	users.GET("/profile", h.Profile.Get)
	users.PUT("/profile", h.Profile.Update)

	// External timers call GET or POST.
	cron := apiGroup.Group("/cron", middleware.CronAuth(cronSecret))
	cron.GET("/auto-generation", h.Cron.Sweep)
	cron.POST("/auto-generation", h.Cron.Sweep)
	cron.GET("/runs", h.Cron.ListRuns)
	cron.GET("/runs/:rid", h.Cron.GetRun)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
