package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"plan-measure/internal/planner/export"
	"plan-measure/internal/planner/exportlog"
)

// ============================================================
// Export Handlers
// ============================================================

// Export renders the session overlay over its background and returns the PNG.
// The file is also written to export storage and recorded in the export log
// when those are configured.
func (h *PlannerHandler) Export(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	filename := export.SanitizeFilename(c.Query("filename", export.DefaultFilename))

	start := time.Now()
	var buf bytes.Buffer
	stats, err := s.ExportPNG(&buf, h.compositor, h.includeHandles)
	h.metrics.ExportDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		h.metrics.Exports.WithLabelValues("error").Inc()
		h.logger.Error("export failed", "session", s.ID, "err", err)
		return fail(c, err)
	}

	entry := exportlog.Entry{
		SessionID:     s.ID,
		Filename:      filename,
		Width:         stats.Width,
		Height:        stats.Height,
		Shapes:        stats.Shapes,
		MeterPerPixel: stats.MeterPerPixel,
		Bytes:         buf.Len(),
	}

	if h.storage != nil {
		path, err := h.storage.Save(s.ID, filename, buf.Bytes())
		if err != nil {
			h.metrics.Exports.WithLabelValues("error").Inc()
			h.logger.Error("export save failed", "session", s.ID, "err", err)
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save export"})
		}
		entry.Path = path
	}

	if h.exports != nil {
		recorded, err := h.exports.Record(context.Background(), entry)
		if err != nil {
			h.logger.Error("export log failed", "session", s.ID, "err", err)
		} else {
			c.Set("X-Export-Id", recorded.ID)
		}
	}

	h.metrics.Exports.WithLabelValues("ok").Inc()
	h.logger.Info("export done", "session", s.ID, "file", filename, "bytes", buf.Len(),
		"width", stats.Width, "height", stats.Height, "shapes", stats.Shapes)

	c.Set("Content-Type", "image/png")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}

// Composite flattens an SVG snapshot sent in the request body over the
// session background. Nothing is stored.
func (h *PlannerHandler) Composite(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	if len(c.Body()) == 0 {
		return badRequest(c, "svg body required")
	}

	var buf bytes.Buffer
	if err := s.CompositePNG(&buf, h.compositor, string(c.Body())); err != nil {
		h.logger.Warn("composite failed", "session", s.ID, "err", err)
		return fail(c, err)
	}

	c.Set("Content-Type", "image/png")
	return c.Send(buf.Bytes())
}

// ListExports returns export log entries, newest first. Optional query
// parameters: session, limit.
func (h *PlannerHandler) ListExports(c fiber.Ctx) error {
	if h.exports == nil {
		return c.JSON(fiber.Map{"exports": []exportlog.Entry{}})
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return badRequest(c, "limit must be a non-negative integer")
		}
		limit = n
	}

	entries, err := h.exports.List(context.Background(), c.Query("session"), limit)
	if err != nil {
		h.logger.Error("list exports failed", "err", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list exports"})
	}
	return c.JSON(fiber.Map{"exports": entries})
}
