// Package session keeps the editors of connected clients. Each session owns
// one editor and serializes every call into it.
package session

import (
	"errors"
	"image"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"plan-measure/internal/planner/editor"
	"plan-measure/internal/planner/export"
	"plan-measure/internal/planner/render"
	"plan-measure/internal/planner/scene"
)

var ErrNotFound = errors.New("session not found")

// ============================================================
// Session
// ============================================================

type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	editor     *editor.Editor
	background image.Image
	maxPixels  int
	// answer is the length typed for the calibration line that the next
	// pointer-up commits.
	answer    string
	answerSet bool
}

func newSession(id string, maxPixels int, opts []editor.Option) *Session {
	s := &Session{ID: id, CreatedAt: time.Now(), maxPixels: maxPixels}
	opts = append(opts, editor.WithPrompt(editor.PromptFunc(s.takeAnswer)))
	s.editor = editor.New(opts...)
	return s
}

// Update runs fn with exclusive access to the editor.
func (s *Session) Update(fn func(ed *editor.Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.editor)
}

// PointerUp commits the running gesture. length answers the calibration
// prompt; nil means the user dismissed it.
func (s *Session) PointerUp(ev editor.PointerEvent, length *string) editor.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if length != nil {
		s.answer, s.answerSet = *length, true
	}
	out := s.editor.PointerUp(ev)
	s.answer, s.answerSet = "", false
	return out
}

func (s *Session) takeAnswer(float64) (string, bool) {
	return s.answer, s.answerSet
}

// SetBackground decodes data and makes it the new world. The previous image
// stays in place when decoding fails.
func (s *Session) SetBackground(data []byte) (image.Image, string, error) {
	img, format, err := DecodeImage(data, s.maxPixels)
	if err != nil {
		return nil, "", err
	}
	b := img.Bounds()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editor.LoadBackground(b.Dx(), b.Dy()); err != nil {
		return nil, "", err
	}
	s.background = img
	return img, format, nil
}

// Live is the on-screen scene.
func (s *Session) Live() *scene.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return render.Live(s.editor.State())
}

// ============================================================
// Export
// ============================================================

// ExportStats describes what an export contained.
type ExportStats struct {
	Width         int
	Height        int
	Shapes        int
	MeterPerPixel float64
}

// ExportPNG renders the overlay at world scale, snapshots it to SVG and
// composites it over the background. Editor state is only read.
func (s *Session) ExportPNG(w io.Writer, c *export.Compositor, includeHandles bool) (ExportStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.editor.State()
	sc := render.ForExport(st, includeHandles)
	stats := ExportStats{
		Width:         int(st.Background.Width),
		Height:        int(st.Background.Height),
		Shapes:        st.Shapes.Len(),
		MeterPerPixel: st.MeterPerPixel,
	}
	if err := c.ExportPNG(w, s.background, scene.MarshalSVG(sc)); err != nil {
		return ExportStats{}, err
	}
	return stats, nil
}

// CompositePNG flattens a client-supplied snapshot over the background.
func (s *Session) CompositePNG(w io.Writer, c *export.Compositor, svg string) error {
	s.mu.Lock()
	bg := s.background
	s.mu.Unlock()
	return c.ExportPNG(w, bg, svg)
}

// ============================================================
// Registry
// ============================================================

type Registry struct {
	// MaxPixels caps uploaded backgrounds; zero means export.DefaultMaxPixels.
	// Set it before the first Create.
	MaxPixels int

	mu       sync.RWMutex
	sessions map[string]*Session
	opts     []editor.Option
}

// NewRegistry creates an empty registry. opts are applied to every new editor.
func NewRegistry(opts ...editor.Option) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

func (r *Registry) Create() *Session {
	opts := make([]editor.Option, len(r.opts))
	copy(opts, r.opts)
	maxPixels := r.MaxPixels
	if maxPixels <= 0 {
		maxPixels = export.DefaultMaxPixels
	}
	s := newSession(uuid.NewString(), maxPixels, opts)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
