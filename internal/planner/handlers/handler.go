package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"plan-measure/internal/common/metrics"
	"plan-measure/internal/planner/calibration"
	"plan-measure/internal/planner/editor"
	"plan-measure/internal/planner/export"
	"plan-measure/internal/planner/exportlog"
	"plan-measure/internal/planner/session"
)

// ============================================================
// Planner Handler
// ============================================================

type PlannerHandler struct {
	sessions       *session.Registry
	compositor     *export.Compositor
	storage        *export.FileStorage
	exports        *exportlog.Repository
	metrics        *metrics.Metrics
	logger         *slog.Logger
	includeHandles bool
}

type Deps struct {
	Sessions   *session.Registry
	Compositor *export.Compositor
	// Storage and Exports are optional; without them exports are only
	// streamed back.
	Storage        *export.FileStorage
	Exports        *exportlog.Repository
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	IncludeHandles bool
}

func NewPlannerHandler(d Deps) *PlannerHandler {
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	return &PlannerHandler{
		sessions:       d.Sessions,
		compositor:     d.Compositor,
		storage:        d.Storage,
		exports:        d.Exports,
		metrics:        d.Metrics,
		logger:         d.Logger.With("component", "handlers"),
		includeHandles: d.IncludeHandles,
	}
}

// Register mounts the planner routes.
func (h *PlannerHandler) Register(r fiber.Router) {
	r.Post("/sessions", h.CreateSession)
	r.Delete("/sessions/:id", h.DeleteSession)

	r.Post("/sessions/:id/background", h.UploadBackground)
	r.Post("/sessions/:id/container", h.SetContainer)

	r.Post("/sessions/:id/pointer/down", h.PointerDown)
	r.Post("/sessions/:id/pointer/move", h.PointerMove)
	r.Post("/sessions/:id/pointer/up", h.PointerUp)
	r.Post("/sessions/:id/pointer/cancel", h.PointerCancel)

	r.Post("/sessions/:id/wheel", h.Wheel)
	r.Post("/sessions/:id/zoom/:action", h.Zoom)
	r.Post("/sessions/:id/mode", h.SetMode)
	r.Post("/sessions/:id/intent", h.Intent)

	r.Get("/sessions/:id/state", h.GetState)
	r.Get("/sessions/:id/scene", h.GetScene)
	r.Get("/sessions/:id/overlay.svg", h.GetOverlaySVG)
	r.Get("/sessions/:id/shapes", h.ListShapes)
	r.Delete("/sessions/:id/shapes/selected", h.DeleteSelected)

	r.Post("/sessions/:id/export", h.Export)
	r.Post("/sessions/:id/composite", h.Composite)
	r.Get("/exports", h.ListExports)
}

// ============================================================
// Helpers
// ============================================================

func (h *PlannerHandler) session(c fiber.Ctx) (*session.Session, error) {
	id := c.Params("id")
	c.Locals("session", id)
	return h.sessions.Get(id)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrGestureActive):
		return http.StatusConflict
	case errors.Is(err, editor.ErrHandleUnavailable),
		errors.Is(err, editor.ErrUnknownMode),
		errors.Is(err, editor.ErrUnknownIntent),
		errors.Is(err, editor.ErrInvalidBackground),
		errors.Is(err, session.ErrUnsupportedImage),
		errors.Is(err, calibration.ErrInvalidLength),
		errors.Is(err, calibration.ErrTooShort),
		errors.Is(err, export.ErrMalformedSnapshot),
		errors.Is(err, export.ErrFrameTooLarge):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func fail(c fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
