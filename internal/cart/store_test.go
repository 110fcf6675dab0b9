package cart

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/autoimport-storefront/internal/cartstate"
	"github.com/angelmondragon/autoimport-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/autoimport-storefront/pkg/errors"
	"github.com/angelmondragon/autoimport-storefront/pkg/logger"
)

const testKey = "storefront_cart"

var (
	corolla = catalog.Item{Code: 101, Brand: "Toyota", Model: "Corolla", Category: "Sedán", SalePrice: decimal.RequireFromString("25000.00"), ImageURL: "img/101.png", LogoURL: "logo/toyota.png"}
	ranger  = catalog.Item{Code: 202, Brand: "Ford", Model: "Ranger", Category: "Camioneta", SalePrice: decimal.RequireFromString("15000.50"), ImageURL: "img/202.png", LogoURL: "logo/ford.png"}
)

func newTestStore(t *testing.T, state cartstate.StateStore) *Store {
	t.Helper()
	if state == nil {
		state = cartstate.NewMemoryStore()
	}
	store, err := NewStore(state, Options{Key: testKey})
	require.NoError(t, err)
	return store
}

func requireTotals(t *testing.T, snap Snapshot, count int, total string) {
	t.Helper()
	assert.Equal(t, count, snap.TotalItemCount, "item count")
	assert.True(t, snap.TotalPrice.Equal(decimal.RequireFromString(total)), "expected total %s, got %s", total, snap.TotalPrice)
}

func TestConcreteScenario(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)

	snap, err := store.AddItem(ctx, corolla, 2)
	require.NoError(t, err)
	requireTotals(t, snap, 2, "50000.00")

	snap, err = store.AddItem(ctx, corolla, 1)
	require.NoError(t, err)
	line, ok := snap.Line(101)
	require.True(t, ok)
	assert.Equal(t, 3, line.Quantity)
	requireTotals(t, snap, 3, "75000.00")

	snap, err = store.AddItem(ctx, ranger, 1)
	require.NoError(t, err)
	requireTotals(t, snap, 4, "90000.50")

	snap, err = store.ChangeQuantity(ctx, 101, -3)
	require.NoError(t, err)
	_, ok = snap.Line(101)
	assert.False(t, ok, "line 101 should be removed")
	requireTotals(t, snap, 1, "15000.50")

	snap, err = store.RemoveItem(ctx, 202)
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
	requireTotals(t, snap, 0, "0")
}

func TestRepeatedAddsKeepFirstCapturedPrice(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)

	_, err := store.AddItem(ctx, corolla, 1)
	require.NoError(t, err)

	repriced := corolla
	repriced.SalePrice = decimal.NewFromInt(99999)
	repriced.Model = "Corolla Cross"
	snap, err := store.AddItem(ctx, repriced, 4)
	require.NoError(t, err)

	require.Len(t, snap.Lines, 1)
	line := snap.Lines[0]
	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, "Corolla", line.Model)
	assert.True(t, line.UnitPrice.Equal(corolla.SalePrice))
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)
	_, err := store.AddItem(ctx, corolla, 1)
	require.NoError(t, err)

	for _, qty := range []int{0, -2} {
		_, err := store.AddItem(ctx, ranger, qty)
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	}
	snap := store.Snapshot()
	require.Len(t, snap.Lines, 1)
	requireTotals(t, snap, 1, "25000")
}

func TestQuantityOverflowIsRejected(t *testing.T) {
	ctx := context.Background()
	state := cartstate.NewMemoryStore()
	store := newTestStore(t, state)

	_, err := store.AddItem(ctx, corolla, math.MaxInt)
	require.NoError(t, err)
	persisted, err := state.Load(ctx, testKey)
	require.NoError(t, err)

	_, err = store.AddItem(ctx, corolla, 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = store.ChangeQuantity(ctx, 101, 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	line, ok := store.Snapshot().Line(101)
	require.True(t, ok, "line must survive a rejected overflow")
	assert.Equal(t, math.MaxInt, line.Quantity)

	after, err := state.Load(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, string(persisted), string(after), "rejected overflow must not be persisted")

	fresh := newTestStore(t, state)
	require.NoError(t, fresh.Hydrate(ctx))
	line, ok = fresh.Snapshot().Line(101)
	require.True(t, ok)
	assert.Equal(t, math.MaxInt, line.Quantity)
}

func TestChangeQuantity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)
	_, _ = store.AddItem(ctx, corolla, 2)
	_, _ = store.AddItem(ctx, ranger, 1)

	snap, err := store.ChangeQuantity(ctx, 202, 1)
	require.NoError(t, err)
	line, _ := snap.Line(202)
	assert.Equal(t, 2, line.Quantity)

	snap, err = store.ChangeQuantity(ctx, 101, -5)
	require.NoError(t, err)
	assert.Len(t, snap.Lines, 1, "overshooting below zero removes the line")
}

func TestUnknownCodeIsNoop(t *testing.T) {
	ctx := context.Background()
	state := &countingState{StateStore: cartstate.NewMemoryStore()}
	store := newTestStore(t, state)
	_, _ = store.AddItem(ctx, corolla, 2)
	before := store.Snapshot()
	saves := state.saves

	notified := 0
	store.Subscribe(func(context.Context, Change) { notified++ })

	snap, err := store.ChangeQuantity(ctx, 999, -1)
	require.NoError(t, err)
	assert.Equal(t, before, snap)

	snap, err = store.RemoveItem(ctx, 999)
	require.NoError(t, err)
	assert.Equal(t, before, snap)

	assert.Equal(t, saves, state.saves, "no-ops must not persist")
	assert.Zero(t, notified, "no-ops must not notify")
}

func TestTotalsMatchRecomputation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)
	items := []catalog.Item{
		corolla,
		ranger,
		{Code: 303, Brand: "Kia", Model: "Sportage", SalePrice: decimal.RequireFromString("31999.99")},
	}

	ops := []func() (Snapshot, error){
		func() (Snapshot, error) { return store.AddItem(ctx, items[0], 3) },
		func() (Snapshot, error) { return store.AddItem(ctx, items[2], 7) },
		func() (Snapshot, error) { return store.ChangeQuantity(ctx, 101, -1) },
		func() (Snapshot, error) { return store.AddItem(ctx, items[1], 2) },
		func() (Snapshot, error) { return store.ChangeQuantity(ctx, 303, 4) },
		func() (Snapshot, error) { return store.RemoveItem(ctx, 202) },
		func() (Snapshot, error) { return store.AddItem(ctx, items[0], 1) },
	}
	for i, op := range ops {
		snap, err := op()
		require.NoError(t, err, "op %d", i)

		total := decimal.Zero
		count := 0
		for _, line := range snap.Lines {
			total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
			count += line.Quantity
		}
		assert.True(t, total.Equal(snap.TotalPrice), "op %d: total drifted: %s vs %s", i, total, snap.TotalPrice)
		assert.Equal(t, count, snap.TotalItemCount, "op %d", i)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	state := cartstate.NewMemoryStore()
	store := newTestStore(t, state)
	_, _ = store.AddItem(ctx, corolla, 2)

	_, err := store.Clear(ctx)
	require.NoError(t, err)

	snap := store.Snapshot()
	assert.Empty(t, snap.Lines)
	requireTotals(t, snap, 0, "0")

	payload, err := state.Load(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(payload))
}

func TestSnapshotIsDefensiveCopy(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)
	snap, _ := store.AddItem(ctx, corolla, 2)

	snap.Lines[0].Quantity = 100
	snap.Lines[0].UnitPrice = decimal.Zero
	outside := store.Snapshot()
	outside.Lines[0].Brand = "mutated"

	again := store.Snapshot()
	assert.Equal(t, 2, again.Lines[0].Quantity)
	assert.Equal(t, "Toyota", again.Lines[0].Brand)
	requireTotals(t, again, 2, "50000")
}

func TestPersistRoundTripThroughFreshStore(t *testing.T) {
	ctx := context.Background()
	state := cartstate.NewMemoryStore()
	first := newTestStore(t, state)
	_, _ = first.AddItem(ctx, ranger, 1)
	_, _ = first.AddItem(ctx, corolla, 3)

	second := newTestStore(t, state)
	require.NoError(t, second.Hydrate(ctx))

	want, got := first.Snapshot(), second.Snapshot()
	require.Len(t, got.Lines, len(want.Lines))
	for _, expected := range want.Lines {
		line, ok := got.Line(expected.Code)
		require.True(t, ok, "missing code %d", expected.Code)
		assert.Equal(t, expected.Quantity, line.Quantity)
		assert.True(t, expected.UnitPrice.Equal(line.UnitPrice))
	}
	assert.True(t, want.TotalPrice.Equal(got.TotalPrice))

	line, ok := got.Line(202)
	require.True(t, ok)
	assert.Equal(t, "15000.5", line.UnitPrice.String())
	assert.Equal(t, "logo/ford.png", line.LogoURL)
}

func TestPersistedShapeUsesSingleKey(t *testing.T) {
	ctx := context.Background()
	state := &countingState{StateStore: cartstate.NewMemoryStore()}
	store := newTestStore(t, state)
	_, _ = store.AddItem(ctx, corolla, 1)
	require.NoError(t, store.Hydrate(ctx))

	assert.Equal(t, []string{testKey}, state.savedKeys())
	assert.Equal(t, []string{testKey}, state.loadedKeys())

	payload, err := state.Load(ctx, testKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"code":101,"brand":"Toyota","model":"Corolla","unit_price":"25000","image_url":"img/101.png","logo_url":"logo/toyota.png","quantity":1}]`, string(payload))
}

func TestHydrateMissingKeyLeavesCartEmpty(t *testing.T) {
	store := newTestStore(t, nil)
	require.NoError(t, store.Hydrate(context.Background()))
	assert.True(t, store.Snapshot().IsEmpty())
}

func TestHydrateCorruptStateFallsBackToEmpty(t *testing.T) {
	payloads := map[string]string{
		"invalid json":   `[{"code":101`,
		"wrong shape":    `{"code":101}`,
		"duplicate code": `[{"code":101,"unit_price":"1","quantity":1},{"code":101,"unit_price":"1","quantity":2}]`,
		"zero quantity":  `[{"code":101,"unit_price":"1","quantity":0}]`,
		"negative price": `[{"code":101,"unit_price":"-1","quantity":1}]`,
	}

	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			state := cartstate.NewMemoryStore()
			require.NoError(t, state.Save(ctx, testKey, []byte(payload)))

			buf := &bytes.Buffer{}
			logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
			store, err := NewStore(state, Options{Key: testKey, Logger: logg})
			require.NoError(t, err)
			_, _ = store.AddItem(ctx, ranger, 1)
			require.NoError(t, state.Save(ctx, testKey, []byte(payload)))

			err = store.Hydrate(ctx)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeCorruptState))
			assert.True(t, store.Snapshot().IsEmpty())
			assert.Equal(t, 1, strings.Count(buf.String(), `"level":"warn"`), "one warning per failed hydrate")
			assert.Contains(t, buf.String(), "cart.hydrate_failed")
			assert.Contains(t, buf.String(), testKey)
		})
	}
}

func TestHydrateBackendFailure(t *testing.T) {
	state := &failingState{loadErr: errors.New("connection refused")}
	store := newTestStore(t, state)

	err := store.Hydrate(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	assert.True(t, store.Snapshot().IsEmpty())
}

func TestPersistFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	state := &failingState{StateStore: cartstate.NewMemoryStore()}
	store := newTestStore(t, state)
	_, err := store.AddItem(ctx, corolla, 2)
	require.NoError(t, err)
	before := store.Snapshot()

	notified := 0
	store.Subscribe(func(context.Context, Change) { notified++ })
	state.saveErr = errors.New("disk full")

	mutations := map[string]func() (Snapshot, error){
		"add":    func() (Snapshot, error) { return store.AddItem(ctx, ranger, 1) },
		"change": func() (Snapshot, error) { return store.ChangeQuantity(ctx, 101, -1) },
		"remove": func() (Snapshot, error) { return store.RemoveItem(ctx, 101) },
		"clear":  func() (Snapshot, error) { return store.Clear(ctx) },
	}
	for name, mutate := range mutations {
		snap, err := mutate()
		require.Error(t, err, name)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency), name)
		assert.Equal(t, before, snap, name)
		assert.Equal(t, before, store.Snapshot(), name)
	}
	assert.Zero(t, notified)
}

func TestSettle(t *testing.T) {
	ctx := context.Background()
	state := cartstate.NewMemoryStore()
	store := newTestStore(t, state)
	_, _ = store.AddItem(ctx, corolla, 2)

	var seen Snapshot
	err := store.Settle(ctx, func(snap Snapshot) error {
		seen = snap
		return nil
	})
	require.NoError(t, err)
	requireTotals(t, seen, 2, "50000")
	assert.True(t, store.Snapshot().IsEmpty())

	payload, err := state.Load(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(payload))
}

func TestSettleFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)
	_, _ = store.AddItem(ctx, corolla, 2)

	boom := errors.New("render failed")
	err := store.Settle(ctx, func(Snapshot) error { return boom })
	require.ErrorIs(t, err, boom)
	requireTotals(t, store.Snapshot(), 2, "50000")
}

func TestSettlePanicReleasesStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)
	_, _ = store.AddItem(ctx, corolla, 2)

	func() {
		defer func() {
			assert.NotNil(t, recover(), "panic should propagate to the caller")
		}()
		_ = store.Settle(ctx, func(Snapshot) error { panic("render exploded") })
	}()

	done := make(chan Snapshot, 1)
	go func() { done <- store.Snapshot() }()
	select {
	case snap := <-done:
		requireTotals(t, snap, 2, "50000")
	case <-time.After(2 * time.Second):
		t.Fatal("store stayed locked after a panicking settle callback")
	}

	_, err := store.AddItem(ctx, ranger, 1)
	require.NoError(t, err)
}

func TestSettleEmptyCart(t *testing.T) {
	store := newTestStore(t, nil)
	called := false

	err := store.Settle(context.Background(), func(Snapshot) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	assert.False(t, called)
	assert.True(t, store.Snapshot().IsEmpty())
}

func TestObserversReceiveSnapshotsInOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)

	var calls []string
	unsubscribe := store.Subscribe(func(_ context.Context, change Change) {
		calls = append(calls, "first:"+string(change.Op))
	})
	store.Subscribe(func(_ context.Context, change Change) {
		calls = append(calls, "second:"+string(change.Op))
		assert.Equal(t, change.Snapshot, store.Snapshot())
	})

	_, _ = store.AddItem(ctx, corolla, 1)
	unsubscribe()
	unsubscribe()
	_, _ = store.Clear(ctx)

	assert.Equal(t, []string{"first:add", "second:add", "second:clear"}, calls)
}

func TestConcurrentMutationsSerialize(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.AddItem(ctx, corolla, 1)
			_ = store.Snapshot()
		}()
	}
	wg.Wait()

	line, ok := store.Snapshot().Line(101)
	require.True(t, ok)
	assert.Equal(t, 50, line.Quantity)
}

func TestNewStoreValidation(t *testing.T) {
	_, err := NewStore(nil, Options{Key: testKey})
	assert.Error(t, err)

	_, err = NewStore(cartstate.NewMemoryStore(), Options{Key: "  "})
	assert.Error(t, err)
}

type countingState struct {
	cartstate.StateStore
	mu     sync.Mutex
	saves  int
	saved  map[string]struct{}
	loaded map[string]struct{}
}

func (c *countingState) Save(ctx context.Context, key string, payload []byte) error {
	c.mu.Lock()
	c.saves++
	if c.saved == nil {
		c.saved = map[string]struct{}{}
	}
	c.saved[key] = struct{}{}
	c.mu.Unlock()
	return c.StateStore.Save(ctx, key, payload)
}

func (c *countingState) Load(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	if c.loaded == nil {
		c.loaded = map[string]struct{}{}
	}
	c.loaded[key] = struct{}{}
	c.mu.Unlock()
	return c.StateStore.Load(ctx, key)
}

func (c *countingState) savedKeys() []string  { return keysOf(c.saved) }
func (c *countingState) loadedKeys() []string { return keysOf(c.loaded) }

func keysOf(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

type failingState struct {
	cartstate.StateStore
	loadErr error
	saveErr error
}

func (f *failingState) Load(ctx context.Context, key string) ([]byte, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.StateStore.Load(ctx, key)
}

func (f *failingState) Save(ctx context.Context, key string, payload []byte) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.StateStore.Save(ctx, key, payload)
}
