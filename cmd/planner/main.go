package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"plan-measure/internal/common/config"
	"plan-measure/internal/common/logging"
	"plan-measure/internal/common/metrics"
	"plan-measure/internal/common/middleware"
	"plan-measure/internal/planner/editor"
	"plan-measure/internal/planner/export"
	"plan-measure/internal/planner/exportlog"
	"plan-measure/internal/planner/handlers"
	"plan-measure/internal/planner/session"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gogpu/gg"
)

// ============================================================
// Planner Service
// ============================================================

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	gg.SetLogger(logger.With("component", "gg"))

	db, err := exportlog.OpenSQLite(cfg.Export.DBPath)
	if err != nil {
		logger.Error("open db", "path", cfg.Export.DBPath, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := exportlog.New(db)
	if err := repo.Init(context.Background()); err != nil {
		logger.Error("init db", "err", err)
		os.Exit(1)
	}

	compositor, err := export.NewCompositor(logger, export.WithMaxPixels(cfg.MaxPixels))
	if err != nil {
		logger.Error("init compositor", "err", err)
		os.Exit(1)
	}

	m := metrics.New()
	sessions := session.NewRegistry(
		editor.WithFitPadding(cfg.FitPadding),
		editor.WithLogger(logger.With("component", "editor")),
	)
	sessions.MaxPixels = cfg.MaxPixels
	plannerHandler := handlers.NewPlannerHandler(handlers.Deps{
		Sessions:       sessions,
		Compositor:     compositor,
		Storage:        export.NewFileStorage(cfg.Export.Dir),
		Exports:        repo,
		Metrics:        m,
		Logger:         logger,
		IncludeHandles: cfg.Export.IncludeHandles,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.BodyLimit(),
		AppName:      "Planner Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.CORS(cfg.CORSOrigins...))
	app.Use(middleware.Logger(logger.With("component", "http")))

	// ============================================================
	// Health & Metrics Routes
	// ============================================================

	app.Get("/health/live", handlers.Live)
	app.Get("/health/ready", handlers.Ready(db))
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	// ============================================================
	// Planner Routes
	// ============================================================

	plannerHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting planner service", "addr", addr, "env", cfg.Environment)

	if err := app.Listen(addr); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
