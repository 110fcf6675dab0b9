package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/angelmondragon/autoimport-storefront/internal/cartstate"
	"github.com/angelmondragon/autoimport-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/autoimport-storefront/pkg/errors"
	"github.com/angelmondragon/autoimport-storefront/pkg/logger"
)

type Op string

const (
	OpHydrate Op = "hydrate"
	OpAdd     Op = "add"
	OpChange  Op = "change_quantity"
	OpRemove  Op = "remove"
	OpClear   Op = "clear"
	OpSettle  Op = "checkout"
)

// Change is delivered to observers after a mutation has been persisted.
type Change struct {
	Op       Op
	Snapshot Snapshot
}

// Observer is notified after every applied mutation. Observers run
// sequentially in registration order and must not mutate the store.
type Observer func(ctx context.Context, change Change)

type Options struct {
	// Key is the storage key used for both hydration and persistence.
	Key       string
	Logger    *logger.Logger
	Observers []Observer
}

// Store is the single authority over cart contents. Every mutation is
// written through to the state store before it becomes visible.
type Store struct {
	state cartstate.StateStore
	key   string
	logg  *logger.Logger

	mu    sync.RWMutex
	lines []Line

	// notifyMu is taken before mu is released so observers see mutations
	// in the order they were applied.
	notifyMu  sync.Mutex
	obsMu     sync.RWMutex
	observers []observerEntry
	nextObsID int
}

type observerEntry struct {
	id int
	fn Observer
}

func NewStore(state cartstate.StateStore, opts Options) (*Store, error) {
	if state == nil {
		return nil, fmt.Errorf("cart state store required")
	}
	key := strings.TrimSpace(opts.Key)
	if key == "" {
		return nil, fmt.Errorf("cart storage key required")
	}
	s := &Store{
		state: state,
		key:   key,
		logg:  opts.Logger,
	}
	for _, fn := range opts.Observers {
		s.Subscribe(fn)
	}
	return s, nil
}

// Key reports the storage key the store reads and writes.
func (s *Store) Key() string {
	return s.key
}

// Hydrate replaces the in-memory cart with the persisted one. A missing key
// yields an empty cart. Unreadable or invalid state leaves the cart empty and
// is reported so the caller can log it and carry on.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	s.lines = nil

	payload, err := s.state.Load(ctx, s.key)
	switch {
	case errors.Is(err, cartstate.ErrNotFound):
		err = nil
	case err != nil:
		err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load persisted cart")
	default:
		var lines []Line
		lines, err = decodeLines(payload)
		if err == nil {
			s.lines = lines
		}
	}

	if err != nil {
		s.warn(ctx, "cart.hydrate_failed", err)
	}
	s.release(ctx, OpHydrate)
	return err
}

// AddItem adds quantity units of item. An existing line only accumulates
// quantity; its frozen price and metadata stay as first captured.
func (s *Store) AddItem(ctx context.Context, item catalog.Item, quantity int) (Snapshot, error) {
	if quantity <= 0 {
		return s.Snapshot(), pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer").
			WithDetails(map[string]any{"quantity": quantity})
	}

	s.mu.Lock()
	next := cloneLines(s.lines)
	if idx := indexOf(next, item.Code); idx >= 0 {
		if quantity > math.MaxInt-next[idx].Quantity {
			s.mu.Unlock()
			return s.Snapshot(), quantityOverflow(item.Code, quantity)
		}
		next[idx].Quantity += quantity
	} else {
		next = append(next, lineFromItem(item, quantity))
	}
	return s.commit(ctx, OpAdd, next)
}

// ChangeQuantity adjusts the line for code by delta and drops it when the
// result is not positive. Unknown codes are a no-op.
func (s *Store) ChangeQuantity(ctx context.Context, code int64, delta int) (Snapshot, error) {
	s.mu.Lock()
	idx := indexOf(s.lines, code)
	if idx < 0 || delta == 0 {
		snap := newSnapshot(s.lines)
		s.mu.Unlock()
		return snap, nil
	}

	if delta > 0 && delta > math.MaxInt-s.lines[idx].Quantity {
		snap := newSnapshot(s.lines)
		s.mu.Unlock()
		return snap, quantityOverflow(code, delta)
	}

	next := cloneLines(s.lines)
	next[idx].Quantity += delta
	if next[idx].Quantity <= 0 {
		next = append(next[:idx], next[idx+1:]...)
	}
	return s.commit(ctx, OpChange, next)
}

// RemoveItem deletes the line for code. Unknown codes are a no-op.
func (s *Store) RemoveItem(ctx context.Context, code int64) (Snapshot, error) {
	s.mu.Lock()
	idx := indexOf(s.lines, code)
	if idx < 0 {
		snap := newSnapshot(s.lines)
		s.mu.Unlock()
		return snap, nil
	}

	next := cloneLines(s.lines)
	next = append(next[:idx], next[idx+1:]...)
	return s.commit(ctx, OpRemove, next)
}

// Clear empties the cart and persists the empty state.
func (s *Store) Clear(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	return s.commit(ctx, OpClear, []Line{})
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newSnapshot(s.lines)
}

// Settle runs fn against the current cart while holding the mutation lock.
// When fn succeeds the cart is cleared and persisted before any other
// mutation can run. An empty cart is rejected without calling fn. fn must
// not call back into the store.
func (s *Store) Settle(ctx context.Context, fn func(Snapshot) error) error {
	s.mu.Lock()
	snap := newSnapshot(s.lines)
	if snap.IsEmpty() {
		s.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	if err := s.runLocked(snap, fn); err != nil {
		s.mu.Unlock()
		return err
	}
	_, err := s.commit(ctx, OpSettle, []Line{})
	return err
}

// runLocked calls fn with mu held. If fn panics, mu is released before the
// panic continues so the store stays usable after a recovered panic.
func (s *Store) runLocked(snap Snapshot, fn func(Snapshot) error) error {
	returned := false
	defer func() {
		if !returned {
			s.mu.Unlock()
		}
	}()
	err := fn(snap)
	returned = true
	return err
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (s *Store) Subscribe(fn Observer) func() {
	if fn == nil {
		return func() {}
	}
	s.obsMu.Lock()
	s.nextObsID++
	id := s.nextObsID
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			defer s.obsMu.Unlock()
			for idx, entry := range s.observers {
				if entry.id == id {
					s.observers = append(s.observers[:idx:idx], s.observers[idx+1:]...)
					return
				}
			}
		})
	}
}

// commit persists next and swaps it in. It must be called with mu held and
// releases it. On a persist failure the current lines are kept.
func (s *Store) commit(ctx context.Context, op Op, next []Line) (Snapshot, error) {
	payload, err := encodeLines(next)
	if err == nil {
		err = s.state.Save(ctx, s.key, payload)
	}
	if err != nil {
		snap := newSnapshot(s.lines)
		s.mu.Unlock()
		wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
		s.warn(ctx, "cart.persist_failed", wrapped)
		return snap, wrapped
	}

	s.lines = next
	snap := s.release(ctx, op)
	if s.logg != nil {
		s.logg.Debug(s.logg.WithCartChange(ctx, string(op), len(snap.Lines), snap.TotalItemCount), "cart.mutated")
	}
	return snap, nil
}

// release hands the lock over to observer delivery.
func (s *Store) release(ctx context.Context, op Op) Snapshot {
	snap := newSnapshot(s.lines)
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.obsMu.RLock()
	observers := make([]observerEntry, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.RUnlock()

	for _, entry := range observers {
		entry.fn(ctx, Change{Op: op, Snapshot: newSnapshot(snap.Lines)})
	}
	return snap
}

func quantityOverflow(code int64, amount int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the supported maximum").
		WithDetails(map[string]any{"code": code, "quantity": amount})
}

func (s *Store) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithStorageKey(ctx, s.key)
	ctx = s.logg.WithField(ctx, "error", err.Error())
	s.logg.Warn(ctx, msg)
}
