package store

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchen-relay/internal/domain"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.NotificationEvent
}

func (r *recorder) Dispatch(ev domain.NotificationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []domain.NotificationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.NotificationEvent(nil), r.events...)
}

func dish(name string, qty int) domain.Dish {
	return domain.Dish{Name: name, UnitPrice: decimal.NewFromInt(8), Quantity: qty}
}

func newStore(t *testing.T) (*Store, *recorder) {
	t.Helper()
	rec := &recorder{}
	s := New(rec)
	t.Cleanup(s.Close)
	return s, rec
}

func TestAddOrderMergesSameTable(t *testing.T) {
	s, _ := newStore(t)

	require.NoError(t, s.AddOrder(domain.Order{OrderID: "o-1", TableID: "u1::T1", Dishes: []domain.Dish{dish("Pizza", 2), dish("Water", 1)}}))
	require.NoError(t, s.AddOrder(domain.Order{OrderID: "o-2", TableID: "u1::T1", Dishes: []domain.Dish{dish("Pizza", 1)}}))
	require.NoError(t, s.AddOrder(domain.Order{OrderID: "o-3", TableID: "u1::T1", Dishes: []domain.Dish{dish("Soup", 1), dish("Bread", 3)}}))

	view := s.CurrentView()
	require.Len(t, view, 1)
	assert.Equal(t, "o-1", view[0].OrderID)
	// concatenation: duplicate names stay separate line entries
	require.Len(t, view[0].Dishes, 5)
	assert.Equal(t, "Pizza", view[0].Dishes[0].Name)
	assert.Equal(t, "Pizza", view[0].Dishes[2].Name)
}

func TestCurrentViewSortedByTable(t *testing.T) {
	s, _ := newStore(t)
	for i, table := range []string{"u1::Table 9", "u1::Table 10", "u1::Bar", "u1::Table 2"} {
		require.NoError(t, s.AddOrder(domain.Order{OrderID: string(rune('a' + i)), TableID: table, Dishes: []domain.Dish{dish("Pizza", 1)}}))
		assertSorted(t, s.CurrentView())
	}

	_, err := s.RemoveOrder("b")
	require.NoError(t, err)
	assertSorted(t, s.CurrentView())
	assert.Len(t, s.CurrentView(), 3)
}

func assertSorted(t *testing.T, view []domain.Order) {
	t.Helper()
	assert.True(t, sort.SliceIsSorted(view, func(i, j int) bool { return view[i].TableID < view[j].TableID }))
}

func TestRemoveDishDecrementsThenRemoves(t *testing.T) {
	s, rec := newStore(t)
	require.NoError(t, s.AddOrder(domain.Order{OrderID: "o-1", TableID: "u1::Table 3", Dishes: []domain.Dish{dish("Pizza", 2), dish("Water", 1)}}))

	ok, err := s.RemoveDish("o-1", "Pizza")
	require.NoError(t, err)
	require.True(t, ok)
	o, found := s.Get("o-1")
	require.True(t, found)
	assert.Equal(t, 1, o.Dishes[0].Quantity)

	ok, err = s.RemoveDish("o-1", "Pizza")
	require.NoError(t, err)
	require.True(t, ok)
	o, found = s.Get("o-1")
	require.True(t, found)
	require.Len(t, o.Dishes, 1)
	assert.Equal(t, "Water", o.Dishes[0].Name)

	ok, err = s.RemoveDish("o-1", "Water")
	require.NoError(t, err)
	require.True(t, ok)
	_, found = s.Get("o-1")
	assert.False(t, found)
	assert.Empty(t, s.CurrentView())

	// three plates ready, then the emptied order completes
	events := rec.all()
	require.Len(t, events, 4)
	for _, ev := range events[:3] {
		assert.Equal(t, domain.DishReadyKind, ev.Kind)
		assert.Equal(t, "u1::Table 3", ev.TableID)
	}
	assert.Contains(t, events[0].Message, "Pizza")
	assert.Contains(t, events[2].Message, "Water")
	assert.Equal(t, domain.OrderCompleteKind, events[3].Kind)
	assert.Equal(t, "The order of Table 3 is complete", events[3].Message)
}

func TestRemoveOrderEmitsOneCompleteEvent(t *testing.T) {
	s, rec := newStore(t)
	require.NoError(t, s.AddOrder(domain.Order{OrderID: "o-1", TableID: "u1::Table 3", Dishes: []domain.Dish{dish("Pizza", 2)}}))

	ok, err := s.RemoveOrder("o-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.RemoveOrder("o-1")
	require.NoError(t, err)
	assert.False(t, ok)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, domain.OrderCompleteKind, events[0].Kind)
	assert.Equal(t, "u1::Table 3", events[0].TableID)
}

func TestUnknownOrderIsNoop(t *testing.T) {
	s, rec := newStore(t)
	require.NoError(t, s.AddOrder(domain.Order{OrderID: "o-1", TableID: "u1::T1", Dishes: []domain.Dish{dish("Pizza", 1)}}))
	before := s.CurrentView()

	ok, err := s.RemoveDish("missing", "Pizza")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.RemoveDish("o-1", "Sushi")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.RemoveOrder("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, before, s.CurrentView())
	assert.Empty(t, rec.all())
}

func TestViewIsSnapshot(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.AddOrder(domain.Order{OrderID: "o-1", TableID: "u1::T1", Dishes: []domain.Dish{dish("Pizza", 2)}}))

	view := s.CurrentView()
	view[0].Dishes[0] = view[0].Dishes[0].WithQuantity(99)

	o, _ := s.Get("o-1")
	assert.Equal(t, 2, o.Dishes[0].Quantity)
}

func TestConcurrentWritersAreSerialized(t *testing.T) {
	s, _ := newStore(t)
	const writers = 20

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddOrder(domain.Order{OrderID: "shared", TableID: "u1::T1", Dishes: []domain.Dish{dish("Pizza", 1)}})
		}()
	}
	wg.Wait()

	view := s.CurrentView()
	require.Len(t, view, 1)
	assert.Len(t, view[0].Dishes, writers)
}

func TestSubscribeReceivesLatestView(t *testing.T) {
	s, _ := newStore(t)
	updates := s.Subscribe()

	require.NoError(t, s.AddOrder(domain.Order{OrderID: "o-1", TableID: "u1::T1", Dishes: []domain.Dish{dish("Pizza", 1)}}))
	require.NoError(t, s.AddOrder(domain.Order{OrderID: "o-2", TableID: "u1::T2", Dishes: []domain.Dish{dish("Pizza", 1)}}))

	select {
	case view := <-updates:
		assert.Len(t, view, 2)
	case <-time.After(time.Second):
		t.Fatal("no view update received")
	}
}

func TestClosedStore(t *testing.T) {
	s := New(nil)
	s.Close()

	require.ErrorIs(t, s.AddOrder(domain.Order{OrderID: "o", TableID: "t"}), ErrClosed)
	assert.Nil(t, s.CurrentView())
}
