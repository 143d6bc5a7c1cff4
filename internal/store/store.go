package store

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"widgetboard/internal/widget"
)

var (
	ErrZIndexConflict = errors.New("z-index already taken")
	ErrDuplicateID    = errors.New("duplicate widget id in batch")
)

// FloorZIndex is what NextZIndex returns for an empty store.
const FloorZIndex = 0

// MemStore keeps widgets indexed by id and by z-index. Both maps are guarded
// by the same lock and every mutation touches them inside one critical section,
// so readers never see one index ahead of the other.
type MemStore struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]widget.Widget
	byZ  map[int]uuid.UUID
	maxZ int
	now  func() time.Time
}

type Option func(*MemStore)

// WithClock overrides the clock used to stamp LastModified.
func WithClock(now func() time.Time) Option {
	return func(s *MemStore) { s.now = now }
}

func NewMem(opts ...Option) *MemStore {
	s := &MemStore{
		byID: make(map[uuid.UUID]widget.Widget),
		byZ:  make(map[int]uuid.UUID),
		now:  time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *MemStore) Get(id uuid.UUID) (widget.Widget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.byID[id]
	return w, ok
}

func (s *MemStore) GetByZIndex(z int) (widget.Widget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byZ[z]
	if !ok {
		return widget.Widget{}, false
	}
	w, ok := s.byID[id]
	return w, ok
}

// NextZIndex returns one past the highest stored z-index, or FloorZIndex when
// the store is empty. It fails once the top slot is math.MaxInt.
func (s *MemStore) NextZIndex() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.byZ) == 0 {
		return FloorZIndex, nil
	}
	if s.maxZ == math.MaxInt {
		return 0, &widget.ValidationError{Field: "zIndex", Reason: "no slot left above the top of the stack"}
	}
	return s.maxZ + 1, nil
}

func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// List returns every widget ordered by ascending z-index.
func (s *MemStore) List() []widget.Widget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orderedLocked()
}

// ListPage returns one page of the ordered listing; empty when the page starts
// past the end.
func (s *MemStore) ListPage(p widget.Page) []widget.Widget {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, end, ok := p.Bounds(len(s.byID))
	if !ok {
		return []widget.Widget{}
	}
	return s.orderedLocked()[start:end]
}

// ReplaceAll upserts the batch by id and stamps LastModified on every entry.
// The batch is checked in full before anything is written: on error the store
// is left exactly as it was.
func (s *MemStore) ReplaceAll(ws []widget.Widget) ([]widget.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBatchLocked(ws); err != nil {
		return nil, err
	}

	ts := s.now()
	// Drop stale slots first so a widget moving into a slot another batch
	// member is leaving does not get unmapped afterwards.
	for _, w := range ws {
		if cur, ok := s.byID[w.ID]; ok && s.byZ[cur.ZIndex] == w.ID {
			delete(s.byZ, cur.ZIndex)
		}
	}
	for _, w := range ws {
		w.LastModified = ts
		s.byID[w.ID] = w
		s.byZ[w.ZIndex] = w.ID
	}
	s.recomputeMaxLocked()

	return s.orderedLocked(), nil
}

func (s *MemStore) checkBatchLocked(ws []widget.Widget) error {
	ids := make(map[uuid.UUID]struct{}, len(ws))
	slots := make(map[int]uuid.UUID, len(ws))
	for _, w := range ws {
		if err := w.Validate(); err != nil {
			return err
		}
		if _, dup := ids[w.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, w.ID)
		}
		ids[w.ID] = struct{}{}
		if other, dup := slots[w.ZIndex]; dup {
			return fmt.Errorf("%w: z=%d claimed by %s and %s", ErrZIndexConflict, w.ZIndex, other, w.ID)
		}
		slots[w.ZIndex] = w.ID
	}
	// A slot held by a widget outside the batch stays held.
	for z, id := range slots {
		occupant, ok := s.byZ[z]
		if !ok || occupant == id {
			continue
		}
		if _, moving := ids[occupant]; !moving {
			return fmt.Errorf("%w: z=%d held by %s", ErrZIndexConflict, z, occupant)
		}
	}
	return nil
}

// Delete removes the widget and its slot. Unknown ids are ignored.
func (s *MemStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	if s.byZ[w.ZIndex] == id {
		delete(s.byZ, w.ZIndex)
	}
	if w.ZIndex == s.maxZ {
		s.recomputeMaxLocked()
	}
}

// Clear empties both indexes.
func (s *MemStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[uuid.UUID]widget.Widget)
	s.byZ = make(map[int]uuid.UUID)
	s.maxZ = 0
}

func (s *MemStore) recomputeMaxLocked() {
	first := true
	for z := range s.byZ {
		if first || z > s.maxZ {
			s.maxZ = z
			first = false
		}
	}
	if first {
		s.maxZ = 0
	}
}

func (s *MemStore) orderedLocked() []widget.Widget {
	zs := make([]int, 0, len(s.byZ))
	for z := range s.byZ {
		zs = append(zs, z)
	}
	slices.Sort(zs)

	out := make([]widget.Widget, 0, len(zs))
	for _, z := range zs {
		out = append(out, s.byID[s.byZ[z]])
	}
	return out
}
