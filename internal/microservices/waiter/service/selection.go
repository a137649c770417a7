package service

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"kitchen-relay/internal/domain"
	"kitchen-relay/internal/microservices/backend/models"
)

var ErrUnknownItem = errors.New("unknown menu item")

// Line is one menu item with the quantity chosen for it.
type Line struct {
	Item     models.MenuItem
	Quantity int
}

// Selection accumulates what a table is ordering, bounded by available stock.
type Selection struct {
	mu     sync.Mutex
	menu   map[string]models.MenuItem
	chosen map[string]int
}

func NewSelection(menu []models.MenuItem) *Selection {
	s := &Selection{menu: make(map[string]models.MenuItem, len(menu)), chosen: make(map[string]int)}
	for _, it := range menu {
		s.menu[it.Name] = it
	}
	return s
}

// Set clamps qty to [0, stock] and returns the value kept. Zero drops the item.
func (s *Selection) Set(item string, qty int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.menu[item]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownItem, item)
	}
	if qty < 0 {
		qty = 0
	}
	if qty > it.Quantity {
		qty = it.Quantity
	}
	if qty == 0 {
		delete(s.chosen, item)
		return 0, nil
	}
	s.chosen[item] = qty
	return qty, nil
}

func (s *Selection) Quantity(item string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chosen[item]
}

func (s *Selection) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chosen) == 0
}

// Lines returns the chosen items sorted by name.
func (s *Selection) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]Line, 0, len(s.chosen))
	for name, q := range s.chosen {
		lines = append(lines, Line{Item: s.menu[name], Quantity: q})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Item.Name < lines[j].Item.Name })
	return lines
}

func (s *Selection) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines() {
		total = total.Add(l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

func (s *Selection) Entries(tableName string) []models.OrderEntry {
	lines := s.Lines()
	out := make([]models.OrderEntry, 0, len(lines))
	for _, l := range lines {
		out = append(out, models.OrderEntry{TableName: tableName, MenuItemName: l.Item.Name, Quantity: l.Quantity})
	}
	return out
}

func (s *Selection) Dishes() []domain.Dish {
	lines := s.Lines()
	out := make([]domain.Dish, 0, len(lines))
	for _, l := range lines {
		out = append(out, domain.Dish{Name: l.Item.Name, UnitPrice: l.Item.Price, Quantity: l.Quantity})
	}
	return out
}

// SetStock records a new stock level; a larger chosen quantity is clamped down.
func (s *Selection) SetStock(item string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.menu[item]
	if !ok {
		return
	}
	it.Quantity = stock
	s.menu[item] = it
	if q, ok := s.chosen[item]; ok && q > stock {
		if stock <= 0 {
			delete(s.chosen, item)
		} else {
			s.chosen[item] = stock
		}
	}
}

func (s *Selection) Clear() {
	s.mu.Lock()
	s.chosen = make(map[string]int)
	s.mu.Unlock()
}
