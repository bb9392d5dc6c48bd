package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tradeidea/internal/autogen"
	"tradeidea/internal/config"
)

var rootCmd = &cobra.Command{
	Use:          "tradeidea",
	Short:        "Trade idea auto-generation scheduler",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the in-process sweep timer",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBase(func(cfg *config.Config, logger *zap.Logger) error {
			db, err := openDatabase(cfg, logger)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			logger.Info("Schema migration completed")
			return nil
		})
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one auto-generation sweep and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBase(func(cfg *config.Config, logger *zap.Logger) error {
			db, err := openDatabase(cfg, logger)
			if err != nil {
				return err
			}
			a := newApp(cfg, logger, db)
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			res, err := a.sweeper.SweepFrom(ctx, autogen.SourceCLI)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed=%d errors=%d skipped=%d duration=%s\n",
				res.Processed, res.Errors, res.Skipped, res.Duration.Round(time.Millisecond))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, sweepCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withBase loads config and the logger for a command.
func withBase(fn func(cfg *config.Config, logger *zap.Logger) error) error {
	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// --- Logger ---
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	return fn(cfg, logger)
}

func runServe(cmd *cobra.Command, args []string) error {
	return withBase(func(cfg *config.Config, logger *zap.Logger) error {
		// --- Database ---
		db, err := openDatabase(cfg, logger)
		if err != nil {
			return err
		}
		a := newApp(cfg, logger, db)
		defer a.close()

		// --- Echo ---
		e := echo.New()
		e.HideBanner = true
		a.routes(e)

		// --- Cron Scheduler ---
		if cfg.Cron.Enabled {
			scheduler := a.scheduler()
			if err := scheduler.Start(); err != nil {
				return err
			}
			defer func() { <-scheduler.Stop().Done() }()
		} else {
			logger.Info("In-process cron disabled, relying on /api/cron/auto-generation")
		}

		// --- Start Server ---
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		go func() {
			logger.Info("Starting trade idea scheduler", zap.String("addr", addr))
			if err := e.Start(addr); err != nil {
				logger.Info("Server stopped", zap.Error(err))
			}
		}()

		// --- Graceful Shutdown ---
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("Shutting down...")

		// Stop HTTP server
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", zap.Error(err))
		}

		logger.Info("Server exited")
		return nil
	})
}
