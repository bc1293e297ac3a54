package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"plan-measure/internal/planner/calibration"
	"plan-measure/internal/planner/editor"
	"plan-measure/internal/planner/geometry"
	"plan-measure/internal/planner/shape"
)

// ============================================================
// Requests
// ============================================================

type pointerRequest struct {
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Button editor.Button  `json:"button"`
	Target *editor.Target `json:"target,omitempty"`
	// Length answers the calibration prompt on pointer-up. Absent means
	// the prompt was dismissed.
	Length *string `json:"length,omitempty"`
}

func (r pointerRequest) event() editor.PointerEvent {
	return editor.PointerEvent{
		Screen: geometry.Point{X: r.X, Y: r.Y},
		Button: r.Button,
		Target: r.Target,
	}
}

type wheelRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
}

type containerRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type modeRequest struct {
	Mode   editor.Mode `json:"mode"`
	Toggle bool        `json:"toggle"`
}

type intentRequest struct {
	Intent editor.Intent `json:"intent"`
}

type outcomeView struct {
	Gesture    editor.GestureKind `json:"gesture"`
	Created    *shape.Shape       `json:"created,omitempty"`
	Calibrated bool               `json:"calibrated"`
	Discarded  bool               `json:"discarded"`
}

func decode(c fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return errors.New("empty body")
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return errors.New("invalid json")
	}
	return nil
}

// ============================================================
// Pointer
// ============================================================

func (h *PlannerHandler) PointerDown(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	var req pointerRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	if req.Target != nil && req.Target.Kind == editor.TargetHandle && !req.Target.Handle.Valid() {
		return badRequest(c, "unknown handle")
	}

	if err := s.Update(func(ed *editor.Editor) error { return ed.PointerDown(req.event()) }); err != nil {
		return fail(c, err)
	}
	return h.respondState(c, s, nil)
}

func (h *PlannerHandler) PointerMove(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	var req pointerRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	_ = s.Update(func(ed *editor.Editor) error {
		ed.PointerMove(req.event())
		return nil
	})
	return h.respondState(c, s, nil)
}

func (h *PlannerHandler) PointerUp(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	var req pointerRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	out := s.PointerUp(req.event(), req.Length)
	h.observe(out)

	view := outcomeView{
		Gesture:    out.Gesture,
		Created:    out.Created,
		Calibrated: out.Calibrated,
		Discarded:  errors.Is(out.Err, editor.ErrDraftTooSmall),
	}
	if out.Err != nil && !view.Discarded {
		h.logger.Info("gesture rejected", "session", s.ID, "gesture", out.Gesture, "err", out.Err)
		c.Status(statusFor(out.Err))
		return h.respondState(c, s, fiber.Map{"error": out.Err.Error(), "outcome": view})
	}
	return h.respondState(c, s, fiber.Map{"outcome": view})
}

func (h *PlannerHandler) PointerCancel(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	_ = s.Update(func(ed *editor.Editor) error {
		ed.Cancel()
		return nil
	})
	return h.respondState(c, s, nil)
}

func (h *PlannerHandler) observe(out editor.Outcome) {
	if out.Gesture == editor.GestureIdle {
		return
	}
	h.metrics.Gestures.WithLabelValues(string(out.Gesture)).Inc()
	if out.Created != nil {
		h.metrics.ShapesCreated.WithLabelValues(string(out.Created.Type)).Inc()
	}
	if out.Gesture != editor.GestureCalibrationLine {
		return
	}

	result := "cancelled"
	switch {
	case out.Calibrated:
		result = "ok"
	case errors.Is(out.Err, calibration.ErrTooShort):
		result = "too_short"
	case out.Err != nil:
		result = "invalid"
	}
	h.metrics.Calibrations.WithLabelValues(result).Inc()
}

// ============================================================
// Viewport & tools
// ============================================================

func (h *PlannerHandler) Wheel(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	var req wheelRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	_ = s.Update(func(ed *editor.Editor) error {
		ed.Wheel(req.DeltaY, geometry.Point{X: req.X, Y: req.Y})
		return nil
	})
	return h.respondState(c, s, nil)
}

// Zoom handles the in, out and fit buttons.
func (h *PlannerHandler) Zoom(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}

	var fitted bool
	switch action := c.Params("action"); action {
	case "in":
		_ = s.Update(func(ed *editor.Editor) error { ed.ZoomIn(); return nil })
	case "out":
		_ = s.Update(func(ed *editor.Editor) error { ed.ZoomOut(); return nil })
	case "fit":
		_ = s.Update(func(ed *editor.Editor) error { fitted = ed.Fit(); return nil })
		return h.respondState(c, s, fiber.Map{"fitted": fitted})
	default:
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "unknown zoom action " + action})
	}
	return h.respondState(c, s, nil)
}

func (h *PlannerHandler) SetContainer(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	var req containerRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	if req.Width < 0 || req.Height < 0 {
		return badRequest(c, "container size must not be negative")
	}

	_ = s.Update(func(ed *editor.Editor) error {
		ed.SetContainer(geometry.Size{Width: req.Width, Height: req.Height})
		return nil
	})
	return h.respondState(c, s, nil)
}

func (h *PlannerHandler) SetMode(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	var req modeRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	err = s.Update(func(ed *editor.Editor) error {
		if req.Toggle {
			return ed.ToggleMode(req.Mode)
		}
		return ed.SetMode(req.Mode)
	})
	if err != nil {
		return fail(c, err)
	}
	return h.respondState(c, s, nil)
}

func (h *PlannerHandler) Intent(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	var req intentRequest
	if err := decode(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.Update(func(ed *editor.Editor) error { return ed.Apply(req.Intent) }); err != nil {
		return fail(c, err)
	}
	return h.respondState(c, s, nil)
}
