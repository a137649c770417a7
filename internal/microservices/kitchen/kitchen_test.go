package kitchen

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/domain"
	"kitchen-relay/internal/microservices/kitchen/dispatcher"
	"kitchen-relay/internal/microservices/kitchen/registry"
	"kitchen-relay/internal/microservices/kitchen/service"
	"kitchen-relay/internal/microservices/kitchen/store"
	"kitchen-relay/internal/transport/direct"
)

type eventLog struct {
	mu     sync.Mutex
	events []domain.NotificationEvent
}

func (l *eventLog) add(ev domain.NotificationEvent) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) all() []domain.NotificationEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.NotificationEvent(nil), l.events...)
}

func TestOrderToReadyOverDirectSockets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	intake, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	notify, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	// waiter side
	waiter := direct.New(direct.Config{NotifyTimeout: time.Second}, direct.StaticDiscoverer{Addr: intake.Addr().String()}, logger.Nop())
	received := make(chan string, 4)
	go func() {
		_ = waiter.ServeNotificationsListener(ctx, notify, func(_ context.Context, ev domain.NotificationEvent) {
			received <- ev.Message
		})
	}()

	// kitchen side
	kitchenCh := direct.New(direct.Config{NotifyTimeout: time.Second}, direct.StaticDiscoverer{}, logger.Nop())
	reg := registry.NewMemory(time.Minute)
	disp := dispatcher.New(kitchenCh, reg, time.Second, logger.Nop())
	log := &eventLog{}
	st := store.New(store.NotifierFunc(func(ev domain.NotificationEvent) {
		log.add(ev)
		disp.Dispatch(ev)
	}))
	defer st.Close()

	route := func(string) string { return notify.Addr().String() }
	ks := service.NewKitchenService(st, reg, route, logger.Nop())
	go func() { _ = kitchenCh.ServeOrdersListener(ctx, intake, ks.HandleOrder) }()

	order := domain.NewOrder("u1::Table 3", []domain.Dish{
		{Name: "Pizza", UnitPrice: decimal.NewFromFloat(8.0), Quantity: 2},
	})
	require.NoError(t, waiter.SubmitOrder(ctx, order))

	require.Eventually(t, func() bool { return len(ks.View()) == 1 }, 3*time.Second, 10*time.Millisecond)
	view := ks.View()
	require.Equal(t, "u1::Table 3", view[0].TableID)
	require.Equal(t, "Table 3", view[0].Table)
	require.Equal(t, 2, view[0].Plates)
	require.Len(t, view[0].Dishes, 2)
	require.Equal(t, "16.00", view[0].Total)

	ok, err := ks.MarkDishReady(order.OrderID, "Pizza")
	require.NoError(t, err)
	require.True(t, ok)
	disp.Wait()

	got, found := st.Get(order.OrderID)
	require.True(t, found)
	require.Equal(t, 1, got.Dishes[0].Quantity)

	select {
	case msg := <-received:
		require.Equal(t, "Dish Pizza for Table 3 is ready", msg)
	case <-time.After(3 * time.Second):
		t.Fatal("waiter never got the dish ready notification")
	}

	ok, err = ks.MarkDishReady(order.OrderID, "Pizza")
	require.NoError(t, err)
	require.True(t, ok)
	disp.Wait()

	require.Empty(t, ks.View())
	events := log.all()
	require.Len(t, events, 3)
	require.Equal(t, domain.DishReadyKind, events[0].Kind)
	require.Equal(t, domain.DishReadyKind, events[1].Kind)
	require.Equal(t, domain.OrderCompleteKind, events[2].Kind)
	require.Equal(t, "The order of Table 3 is complete", events[2].Message)

	// registrations are single-shot; the later events were skipped, not failed
	_, registered, err := reg.Lookup(ctx, "u1::Table 3")
	require.NoError(t, err)
	require.False(t, registered)
}

func TestUnknownOrderIsNoop(t *testing.T) {
	log := &eventLog{}
	st := store.New(store.NotifierFunc(log.add))
	defer st.Close()
	ks := service.NewKitchenService(st, nil, nil, logger.Nop())

	ok, err := ks.MarkDishReady("missing", "Pizza")
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = ks.CompleteOrder("missing")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, log.all())
}
