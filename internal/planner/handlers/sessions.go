package handlers

import (
	"io"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"plan-measure/internal/planner/calibration"
	"plan-measure/internal/planner/editor"
	"plan-measure/internal/planner/geometry"
	"plan-measure/internal/planner/scene"
	"plan-measure/internal/planner/session"
	"plan-measure/internal/planner/shape"
)

// ============================================================
// Views
// ============================================================

type shapeView struct {
	shape.Shape
	Label string `json:"label"`
	Area  string `json:"area,omitempty"`
}

type stateView struct {
	Viewport      geometry.Viewport  `json:"viewport"`
	ZoomPercent   int                `json:"zoomPercent"`
	Container     geometry.Size      `json:"container"`
	Background    editor.Background  `json:"background"`
	Mode          editor.Mode        `json:"mode"`
	Hint          string             `json:"hint"`
	Gesture       editor.GestureKind `json:"gesture"`
	SpaceHeld     bool               `json:"spaceHeld"`
	Calibrated    bool               `json:"calibrated"`
	MeterPerPixel float64            `json:"meterPerPixel"`
	Calibration   string             `json:"calibration"`
	Shapes        []shapeView        `json:"shapes"`
}

func shapesOf(st *editor.State) []shapeView {
	all := st.Shapes.All()
	out := make([]shapeView, 0, len(all))
	for _, s := range all {
		out = append(out, shapeView{Shape: s, Label: s.Label(st.MeterPerPixel), Area: s.Area(st.MeterPerPixel)})
	}
	return out
}

func viewOf(ed *editor.Editor) stateView {
	st := ed.State()
	return stateView{
		Viewport:      st.Viewport,
		ZoomPercent:   st.Viewport.ZoomPercent(),
		Container:     st.Container,
		Background:    st.Background,
		Mode:          st.Mode,
		Hint:          st.Mode.Hint(),
		Gesture:       st.GestureKind(),
		SpaceHeld:     st.SpaceHeld,
		Calibrated:    st.Calibrated(),
		MeterPerPixel: st.MeterPerPixel,
		Calibration:   calibration.Describe(st.MeterPerPixel),
		Shapes:        shapesOf(st),
	}
}

// ============================================================
// Session lifecycle
// ============================================================

func (h *PlannerHandler) CreateSession(c fiber.Ctx) error {
	s := h.sessions.Create()
	h.metrics.SessionsActive.Set(float64(h.sessions.Len()))
	h.logger.Info("session created", "session", s.ID)

	var view stateView
	_ = s.Update(func(ed *editor.Editor) error {
		view = viewOf(ed)
		return nil
	})
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": s.ID, "state": view})
}

func (h *PlannerHandler) DeleteSession(c fiber.Ctx) error {
	id := c.Params("id")
	if err := h.sessions.Delete(id); err != nil {
		return fail(c, err)
	}
	h.metrics.SessionsActive.Set(float64(h.sessions.Len()))
	h.logger.Info("session closed", "session", id)
	return c.SendStatus(http.StatusNoContent)
}

// UploadBackground replaces the plan image from multipart field "file".
func (h *PlannerHandler) UploadBackground(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file required in multipart/form-data")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read file"})
	}

	img, format, err := s.SetBackground(data)
	if err != nil {
		h.logger.Warn("background rejected", "session", s.ID, "file", fileHeader.Filename, "err", err)
		return fail(c, err)
	}
	h.logger.Info("background loaded", "session", s.ID, "file", fileHeader.Filename, "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())

	return h.respondState(c, s, fiber.Map{
		"format": format,
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	})
}

// ============================================================
// Read endpoints
// ============================================================

func (h *PlannerHandler) GetState(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	return h.respondState(c, s, nil)
}

func (h *PlannerHandler) GetScene(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(s.Live())
}

func (h *PlannerHandler) GetOverlaySVG(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(scene.MarshalSVG(s.Live()))
}

func (h *PlannerHandler) ListShapes(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	var out []shapeView
	_ = s.Update(func(ed *editor.Editor) error {
		out = shapesOf(ed.State())
		return nil
	})
	return c.JSON(fiber.Map{"shapes": out})
}

func (h *PlannerHandler) DeleteSelected(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, err)
	}
	var removed int
	_ = s.Update(func(ed *editor.Editor) error {
		removed = ed.DeleteSelected()
		return nil
	})
	return h.respondState(c, s, fiber.Map{"removed": removed})
}

// respondState writes {"state": ...} merged with extra fields.
func (h *PlannerHandler) respondState(c fiber.Ctx, s *session.Session, extra fiber.Map) error {
	body := fiber.Map{}
	for k, v := range extra {
		body[k] = v
	}
	_ = s.Update(func(ed *editor.Editor) error {
		body["state"] = viewOf(ed)
		return nil
	})
	return c.JSON(body)
}
