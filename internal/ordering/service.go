// Package ordering keeps widget z-indexes unique. Colliding widgets are pushed
// one slot up; every mutation runs under a single lock and lands in the store
// as one batch.
package ordering

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"widgetboard/internal/widget"
)

// Store is the subset of store.MemStore the service needs.
type Store interface {
	Get(id uuid.UUID) (widget.Widget, bool)
	GetByZIndex(z int) (widget.Widget, bool)
	NextZIndex() (int, error)
	List() []widget.Widget
	ListPage(p widget.Page) []widget.Widget
	ReplaceAll(ws []widget.Widget) ([]widget.Widget, error)
	Delete(id uuid.UUID)
	Len() int
}

type Service struct {
	store Store
	mu    sync.Locker
	log   *slog.Logger
	newID func() uuid.UUID
}

type Option func(*Service)

// WithLocker replaces the mutex that serializes mutations.
func WithLocker(l sync.Locker) Option {
	return func(s *Service) { s.mu = l }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithIDGenerator overrides uuid.New for new widgets.
func WithIDGenerator(f func() uuid.UUID) Option {
	return func(s *Service) { s.newID = f }
}

func New(st Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		mu:    &sync.Mutex{},
		log:   slog.Default(),
		newID: uuid.New,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create places a new widget. Without a z-index it goes on top of the stack.
func (s *Service) Create(ctx context.Context, d widget.Draft) (widget.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		z     int
		batch []widget.Widget
		err   error
	)
	if d.ZIndex == nil {
		z, err = s.store.NextZIndex()
	} else {
		z = *d.ZIndex
		batch, err = s.shift(z, uuid.Nil)
	}
	if err != nil {
		return widget.Widget{}, err
	}
	shifted := len(batch)

	w, err := widget.New(s.newID(), d.X, d.Y, z, d.Width, d.Height)
	if err != nil {
		return widget.Widget{}, err
	}
	batch = append(batch, w)

	stored, err := s.write(batch, w.ID)
	if err != nil {
		return widget.Widget{}, fmt.Errorf("create widget: %w", err)
	}
	s.log.DebugContext(ctx, "widget created", "id", w.ID, "z", z, "shifted", shifted)
	return stored, nil
}

// Update applies the non-nil fields of u. An omitted z-index moves the widget
// to the top of the stack.
func (s *Service) Update(ctx context.Context, id uuid.UUID, u widget.Update) (widget.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.store.Get(id)
	if !ok {
		return widget.Widget{}, widget.NotFound(id)
	}
	next, err := cur.Apply(u)
	if err != nil {
		return widget.Widget{}, err
	}

	var batch []widget.Widget
	switch {
	case u.ZIndex == nil:
		next.ZIndex, err = s.store.NextZIndex()
	case *u.ZIndex == cur.ZIndex:
	default:
		next.ZIndex = *u.ZIndex
		batch, err = s.shift(next.ZIndex, id)
	}
	if err != nil {
		return widget.Widget{}, err
	}
	shifted := len(batch)
	batch = append(batch, next)

	stored, err := s.write(batch, id)
	if err != nil {
		return widget.Widget{}, fmt.Errorf("update widget %s: %w", id, err)
	}
	s.log.DebugContext(ctx, "widget updated", "id", id, "from", cur.ZIndex, "to", next.ZIndex, "shifted", shifted)
	return stored, nil
}

// Delete frees the widget's slot. Unknown ids are a no-op.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Delete(id)
	s.log.DebugContext(ctx, "widget deleted", "id", id)
}

func (s *Service) Get(id uuid.UUID) (widget.Widget, bool) {
	return s.store.Get(id)
}

func (s *Service) List() []widget.Widget {
	return s.store.List()
}

func (s *Service) ListPage(p widget.Page) []widget.Widget {
	return s.store.ListPage(p)
}

// Count is the number of stored widgets.
func (s *Service) Count() int {
	return s.store.Len()
}

// shift walks up from z and returns a copy of every widget in the contiguous
// occupied run, each moved one slot higher. The walk stops at the first free
// slot. The slot held by self also ends the walk: self leaves it in the same
// batch, so widgets above it keep their z-index (moving 5 to 3 over a run at
// 3,4,5,6 shifts 3 and 4 and leaves 6 alone). A run that reaches math.MaxInt
// cannot move up and is rejected. Callers must hold s.mu.
func (s *Service) shift(z int, self uuid.UUID) ([]widget.Widget, error) {
	var out []widget.Widget
	for {
		w, ok := s.store.GetByZIndex(z)
		if !ok || w.ID == self {
			return out, nil
		}
		if z == math.MaxInt {
			return nil, &widget.ValidationError{Field: "zIndex", Reason: "occupied run reaches the top slot and cannot shift"}
		}
		z++
		out = append(out, w.WithZIndex(z))
	}
}

// write hands the batch to the store and picks id's stored copy out of the
// result, so the caller sees the stamped LastModified.
func (s *Service) write(batch []widget.Widget, id uuid.UUID) (widget.Widget, error) {
	all, err := s.store.ReplaceAll(batch)
	if err != nil {
		return widget.Widget{}, err
	}
	for _, w := range all {
		if w.ID == id {
			return w, nil
		}
	}
	return widget.Widget{}, widget.NotFound(id)
}
