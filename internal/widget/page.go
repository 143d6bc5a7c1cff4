package widget

// Page selects the window [Index*Size, Index*Size+Size) of the z-ordered list.
type Page struct {
	Index int
	Size  int
}

func NewPage(index, size int) (Page, error) {
	if index < 0 {
		return Page{}, &ValidationError{Field: "page", Reason: "must not be negative"}
	}
	if size < 1 {
		return Page{}, &ValidationError{Field: "size", Reason: "must be at least 1"}
	}
	return Page{Index: index, Size: size}, nil
}

// Bounds clips the page window against a list of length total.
// ok is false when the window starts at or past the end.
func (p Page) Bounds(total int) (start, end int, ok bool) {
	if total <= 0 || p.Size < 1 || p.Index < 0 {
		return 0, 0, false
	}
	// index*size may overflow for absurd inputs; anything past total/size is empty anyway.
	if p.Index > (total-1)/p.Size {
		return 0, 0, false
	}
	start = p.Index * p.Size
	end = start + min(p.Size, total-start)
	return start, end, true
}
