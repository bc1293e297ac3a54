package shape

// ============================================================
// Model
// ============================================================

// Model is the ordered shape collection. Draw order is insertion order.
// Shapes are owned by the model; callers refer to them by ID.
type Model struct {
	shapes []*Shape
}

func NewModel() *Model {
	return &Model{}
}

// Add appends a copy of s.
func (m *Model) Add(s Shape) {
	c := s
	m.shapes = append(m.shapes, &c)
}

// RemoveWhere deletes every shape matching pred and returns how many went.
func (m *Model) RemoveWhere(pred func(Shape) bool) int {
	kept := m.shapes[:0]
	removed := 0
	for _, s := range m.shapes {
		if pred(*s) {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	for i := len(kept); i < len(m.shapes); i++ {
		m.shapes[i] = nil
	}
	m.shapes = kept
	return removed
}

// RemoveSelected deletes the selected shapes.
func (m *Model) RemoveSelected() int {
	return m.RemoveWhere(func(s Shape) bool { return s.Selected })
}

// SelectOnly selects the shape with id and deselects all others.
// With an unknown id nothing changes.
func (m *Model) SelectOnly(id string) bool {
	if m.FindByID(id) == nil {
		return false
	}
	for _, s := range m.shapes {
		s.Selected = s.ID == id
	}
	return true
}

func (m *Model) ClearSelection() {
	for _, s := range m.shapes {
		s.Selected = false
	}
}

// FindByID returns the live shape, or nil. The pointer stays valid until the
// shape is removed.
func (m *Model) FindByID(id string) *Shape {
	for _, s := range m.shapes {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Selected returns copies of the selected shapes in draw order.
func (m *Model) Selected() []Shape {
	var out []Shape
	for _, s := range m.shapes {
		if s.Selected {
			out = append(out, *s)
		}
	}
	return out
}

// All returns copies of every shape in draw order.
func (m *Model) All() []Shape {
	out := make([]Shape, 0, len(m.shapes))
	for _, s := range m.shapes {
		out = append(out, *s)
	}
	return out
}

func (m *Model) Len() int {
	return len(m.shapes)
}
