package store

import (
	"errors"
	"sort"
	"sync"

	"kitchen-relay/internal/domain"
)

var ErrClosed = errors.New("order store is closed")

// Notifier receives readiness events. It must not block.
type Notifier interface {
	Dispatch(ev domain.NotificationEvent)
}

type NotifierFunc func(ev domain.NotificationEvent)

func (f NotifierFunc) Dispatch(ev domain.NotificationEvent) { f(ev) }

type action int

const (
	actAdd action = iota
	actRemoveDish
	actRemoveOrder
	actView
	actGet
)

type command struct {
	action   action
	order    domain.Order
	orderID  string
	dishName string
	reply    chan result
}

type result struct {
	ok     bool
	order  domain.Order
	orders []domain.Order
}

// Store is the kitchen's live view of open orders, one per table.
// All state is owned by a single goroutine; callers talk to it through commands.
type Store struct {
	commands chan command
	closed   chan struct{}
	once     sync.Once
	notifier Notifier

	// owned by loop
	byTable map[string]domain.Order
	view    []domain.Order
	subs    []chan []domain.Order
	subMu   sync.Mutex
}

func New(n Notifier) *Store {
	if n == nil {
		n = NotifierFunc(func(domain.NotificationEvent) {})
	}
	s := &Store{
		commands: make(chan command, 32),
		closed:   make(chan struct{}),
		notifier: n,
		byTable:  make(map[string]domain.Order),
	}
	go s.loop()
	return s
}

func (s *Store) loop() {
	for {
		select {
		case cmd := <-s.commands:
			cmd.reply <- s.apply(cmd)
		case <-s.closed:
			return
		}
	}
}

func (s *Store) apply(cmd command) result {
	switch cmd.action {
	case actAdd:
		s.add(cmd.order)
		s.refresh()
		return result{ok: true}
	case actRemoveDish:
		ok := s.removeDish(cmd.orderID, cmd.dishName)
		if ok {
			s.refresh()
		}
		return result{ok: ok}
	case actRemoveOrder:
		ok := s.removeOrder(cmd.orderID)
		if ok {
			s.refresh()
		}
		return result{ok: ok}
	case actView:
		return result{ok: true, orders: cloneAll(s.view)}
	case actGet:
		o, ok := s.findByID(cmd.orderID)
		return result{ok: ok, order: o.Clone()}
	}
	return result{}
}

// add merges into the open order for the same table by concatenation.
func (s *Store) add(o domain.Order) {
	existing, ok := s.byTable[o.TableID]
	if !ok {
		s.byTable[o.TableID] = o.Clone()
		return
	}
	merged := existing.Clone()
	merged.Dishes = append(merged.Dishes, o.Dishes...)
	s.byTable[o.TableID] = merged
}

func (s *Store) removeDish(orderID, dishName string) bool {
	o, ok := s.findByID(orderID)
	if !ok {
		return false
	}
	idx := -1
	for i, d := range o.Dishes {
		if d.Name == dishName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	s.notifier.Dispatch(domain.DishReady(o.TableID, o.Dishes[idx].Name))

	updated := o.Clone()
	if d := updated.Dishes[idx]; d.Quantity > 1 {
		updated.Dishes[idx] = d.WithQuantity(d.Quantity - 1)
	} else {
		updated.Dishes = append(updated.Dishes[:idx], updated.Dishes[idx+1:]...)
	}
	if len(updated.Dishes) == 0 {
		delete(s.byTable, o.TableID)
		s.notifier.Dispatch(domain.OrderComplete(o.TableID))
		return true
	}
	s.byTable[o.TableID] = updated
	return true
}

func (s *Store) removeOrder(orderID string) bool {
	o, ok := s.findByID(orderID)
	if !ok {
		return false
	}
	delete(s.byTable, o.TableID)
	s.notifier.Dispatch(domain.OrderComplete(o.TableID))
	return true
}

func (s *Store) findByID(orderID string) (domain.Order, bool) {
	for _, o := range s.byTable {
		if o.OrderID == orderID {
			return o, true
		}
	}
	return domain.Order{}, false
}

// refresh rebuilds the sorted view and pushes it to subscribers, newest wins.
func (s *Store) refresh() {
	view := make([]domain.Order, 0, len(s.byTable))
	for _, o := range s.byTable {
		view = append(view, o)
	}
	sort.Slice(view, func(i, j int) bool { return view[i].TableID < view[j].TableID })
	s.view = view

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		snap := cloneAll(view)
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Store) do(cmd command) (result, error) {
	select {
	case <-s.closed:
		return result{}, ErrClosed
	default:
	}
	cmd.reply = make(chan result, 1)
	select {
	case s.commands <- cmd:
	case <-s.closed:
		return result{}, ErrClosed
	}
	select {
	case r := <-cmd.reply:
		return r, nil
	case <-s.closed:
		return result{}, ErrClosed
	}
}

func (s *Store) AddOrder(o domain.Order) error {
	_, err := s.do(command{action: actAdd, order: o})
	return err
}

// RemoveDish marks one plate ready. Unknown order or dish is a no-op and returns false.
func (s *Store) RemoveDish(orderID, dishName string) (bool, error) {
	r, err := s.do(command{action: actRemoveDish, orderID: orderID, dishName: dishName})
	return r.ok, err
}

// RemoveOrder force-completes an order. Unknown order is a no-op and returns false.
func (s *Store) RemoveOrder(orderID string) (bool, error) {
	r, err := s.do(command{action: actRemoveOrder, orderID: orderID})
	return r.ok, err
}

// CurrentView returns a snapshot sorted by TableID.
func (s *Store) CurrentView() []domain.Order {
	r, err := s.do(command{action: actView})
	if err != nil {
		return nil
	}
	return r.orders
}

func (s *Store) Get(orderID string) (domain.Order, bool) {
	r, err := s.do(command{action: actGet, orderID: orderID})
	if err != nil {
		return domain.Order{}, false
	}
	return r.order, r.ok
}

// Subscribe returns a channel receiving a snapshot after every mutation.
func (s *Store) Subscribe() <-chan []domain.Order {
	ch := make(chan []domain.Order, 1)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch
}

func (s *Store) Close() {
	s.once.Do(func() {
		close(s.closed)
		s.subMu.Lock()
		for _, ch := range s.subs {
			close(ch)
		}
		s.subs = nil
		s.subMu.Unlock()
	})
}

func cloneAll(in []domain.Order) []domain.Order {
	out := make([]domain.Order, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}
