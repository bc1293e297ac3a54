package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// ============================================================
// Logger Middleware
// ============================================================

// latencyFormat only switches on latency capture; records are built by requestRecord.
const latencyFormat = "${latency}"

// Logger writes one structured record per request through l. Health checks
// and metrics scrapes are not logged.
func Logger(l *slog.Logger) fiber.Handler {
	return logger.New(logger.Config{
		Format: latencyFormat,
		Next:   quietPath,
		LoggerFunc: func(c fiber.Ctx, data *logger.Data, _ *logger.Config) error {
			requestRecord(l, c, data)
			return nil
		},
	})
}

func quietPath(c fiber.Ctx) bool {
	p := c.Path()
	return p == "/metrics" || strings.HasPrefix(p, "/health/")
}

func requestRecord(l *slog.Logger, c fiber.Ctx, data *logger.Data) {
	status := c.Response().StatusCode()
	attrs := []any{
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"latency", data.Stop.Sub(data.Start),
		"bytes", len(c.Response().Body()),
	}
	if id, ok := c.Locals("session").(string); ok && id != "" {
		attrs = append(attrs, "session", id)
	}
	if data.ChainErr != nil {
		attrs = append(attrs, "err", data.ChainErr)
	}
	l.Log(c.Context(), levelFor(status), "request", attrs...)
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}
