package widget

import (
	"time"

	"github.com/google/uuid"
)

// Widget is an immutable-by-replacement record. It shares no mutable state, so
// any copy is an independent snapshot.
type Widget struct {
	ID           uuid.UUID
	X            int
	Y            int
	ZIndex       int
	Width        int
	Height       int
	LastModified time.Time
}

// New builds a widget and checks the size invariant.
func New(id uuid.UUID, x, y, z, width, height int) (Widget, error) {
	w := Widget{
		ID:     id,
		X:      x,
		Y:      y,
		ZIndex: z,
		Width:  width,
		Height: height,
	}
	if err := w.Validate(); err != nil {
		return Widget{}, err
	}
	return w, nil
}

func (w Widget) Validate() error {
	if w.ID == uuid.Nil {
		return &ValidationError{Field: "id", Reason: "must be set"}
	}
	if w.Width <= 0 {
		return &ValidationError{Field: "width", Reason: "must be positive"}
	}
	if w.Height <= 0 {
		return &ValidationError{Field: "height", Reason: "must be positive"}
	}
	return nil
}

// WithZIndex returns a copy moved to slot z.
func (w Widget) WithZIndex(z int) Widget {
	w.ZIndex = z
	return w
}

// Draft carries the caller-supplied fields of a widget that does not exist yet.
// A nil ZIndex asks for the top of the stack.
type Draft struct {
	X      int
	Y      int
	ZIndex *int
	Width  int
	Height int
}

// Update is a partial modification; nil fields keep their current value.
type Update struct {
	X      *int
	Y      *int
	ZIndex *int
	Width  *int
	Height *int
}

// Apply returns a copy of w with every non-nil geometry field of u applied.
// ZIndex is left alone: placing the widget is the ordering service's job.
func (w Widget) Apply(u Update) (Widget, error) {
	if u.X != nil {
		w.X = *u.X
	}
	if u.Y != nil {
		w.Y = *u.Y
	}
	if u.Width != nil {
		w.Width = *u.Width
	}
	if u.Height != nil {
		w.Height = *u.Height
	}
	if err := w.Validate(); err != nil {
		return Widget{}, err
	}
	return w, nil
}

// Int is a helper for building Draft and Update values.
func Int(v int) *int { return &v }
