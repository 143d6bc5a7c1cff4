package transport

import (
	"time"

	"github.com/google/uuid"

	"widgetboard/internal/widget"
)

// CREATE
type CreateRequest struct {
	X      *int `json:"coordinateX" binding:"required"`
	Y      *int `json:"coordinateY" binding:"required"`
	ZIndex *int `json:"zIndex,omitempty"`
	Width  *int `json:"width" binding:"required,min=1"`
	Height *int `json:"height" binding:"required,min=1"`
}

func (r CreateRequest) Draft() widget.Draft {
	return widget.Draft{
		X:      deref(r.X),
		Y:      deref(r.Y),
		ZIndex: r.ZIndex,
		Width:  deref(r.Width),
		Height: deref(r.Height),
	}
}

// UPDATE (omitted fields keep their value; omitted zIndex moves to top)
type UpdateRequest struct {
	ID     uuid.UUID `json:"id" binding:"required"`
	X      *int      `json:"coordinateX,omitempty"`
	Y      *int      `json:"coordinateY,omitempty"`
	ZIndex *int      `json:"zIndex,omitempty"`
	Width  *int      `json:"width,omitempty" binding:"omitempty,min=1"`
	Height *int      `json:"height,omitempty" binding:"omitempty,min=1"`
}

func (r UpdateRequest) Update() widget.Update {
	return widget.Update{X: r.X, Y: r.Y, ZIndex: r.ZIndex, Width: r.Width, Height: r.Height}
}

// Widget is the response body for a single widget.
type Widget struct {
	ID           uuid.UUID `json:"id"`
	LastModified time.Time `json:"lastModificationDate"`
	X            int       `json:"coordinateX"`
	Y            int       `json:"coordinateY"`
	ZIndex       int       `json:"zIndex"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
}

func FromWidget(w widget.Widget) Widget {
	return Widget{
		ID:           w.ID,
		LastModified: w.LastModified,
		X:            w.X,
		Y:            w.Y,
		ZIndex:       w.ZIndex,
		Width:        w.Width,
		Height:       w.Height,
	}
}

func FromWidgets(ws []widget.Widget) []Widget {
	out := make([]Widget, 0, len(ws))
	for _, w := range ws {
		out = append(out, FromWidget(w))
	}
	return out
}

// TotalCountHeader carries the full widget count on paged listings.
const TotalCountHeader = "X-Total-Count"

// ErrorResponse is returned with every 4xx/5xx.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
