package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/domain"
	"kitchen-relay/internal/microservices/backend/models"
	"kitchen-relay/internal/microservices/waiter/backend"
	"kitchen-relay/internal/transport"
)

// KitchenUnreachableWarning is reported when an order was stored but never reached the kitchen.
const KitchenUnreachableWarning = "order saved, but kitchen unreachable"

var ErrEmptySelection = errors.New("nothing selected")

type State string

const (
	StateConfirmed State = "confirmed"
	StateFailed    State = "failed"
)

// Backend is the part of the backend API the workflow talks to.
type Backend interface {
	ListMenu(ctx context.Context) ([]models.MenuItem, error)
	InsertOrderEntries(ctx context.Context, entries []models.OrderEntry) ([]models.OrderEntry, error)
	UpdateMenuItem(ctx context.Context, name string, p models.MenuItemPatch) (models.MenuItem, error)
}

// StockError records one item whose stock could not be decremented.
// Status is the backend's HTTP code, or 0 when the request never got an answer.
type StockError struct {
	Item   string
	Status int
	Err    error
}

type Result struct {
	State       State
	Order       domain.Order
	Entries     []models.OrderEntry
	Warning     string
	StockErrors []StockError
	Err         error
}

type RelayServiceInterface interface {
	Submit(ctx context.Context, table string, sel *Selection) Result
	Confirmed() bool
	Reset()
}

type Relay struct {
	backend Backend
	ch      transport.Channel
	tenant  string
	lg      *logger.Logger

	mu        sync.Mutex
	confirmed bool
}

func NewRelay(be Backend, ch transport.Channel, tenant string, lg *logger.Logger) *Relay {
	if lg == nil {
		lg = logger.Nop()
	}
	return &Relay{backend: be, ch: ch, tenant: tenant, lg: lg.With(map[string]any{"tenant": tenant})}
}

// Submit persists the selection, relays it to the kitchen and reconciles stock.
// Only a failed persist yields StateFailed; the selection is then left untouched.
func (r *Relay) Submit(ctx context.Context, table string, sel *Selection) Result {
	if sel == nil || sel.Empty() {
		return Result{State: StateFailed, Err: ErrEmptySelection}
	}
	lines := sel.Lines()
	fields := map[string]any{"table": table, "items": len(lines)}

	entries := sel.Entries(table)
	for i := range entries {
		entries[i].TenantID = r.tenant
	}
	saved, err := r.backend.InsertOrderEntries(ctx, entries)
	if err != nil {
		r.lg.Error("order_persist_failed", err, fields)
		return Result{State: StateFailed, Err: fmt.Errorf("persist order: %w", err)}
	}

	res := Result{
		Entries: saved,
		Order:   domain.NewOrder(domain.ComposeTableID(r.tenant, table), sel.Dishes()),
	}
	fields["order_id"] = res.Order.OrderID

	if err := r.ch.SubmitOrder(ctx, res.Order); err != nil {
		res.Warning = KitchenUnreachableWarning
		r.lg.Warn("order_relay_failed", err, fields)
	} else {
		r.lg.Info("order_relayed", fields)
	}

	for _, l := range lines {
		remaining := l.Item.Quantity - l.Quantity
		if remaining < 0 {
			remaining = 0
		}
		if _, err := r.backend.UpdateMenuItem(ctx, l.Item.Name, models.MenuItemPatch{Quantity: &remaining}); err != nil {
			se := StockError{Item: l.Item.Name, Err: err}
			var apiErr *backend.APIError
			if errors.As(err, &apiErr) {
				se.Status = apiErr.Status
			}
			res.StockErrors = append(res.StockErrors, se)
			r.lg.Error("stock_update_failed", err, map[string]any{"item": l.Item.Name, "status": se.Status})
			continue
		}
		sel.SetStock(l.Item.Name, remaining)
	}

	r.mu.Lock()
	r.confirmed = true
	r.mu.Unlock()
	sel.Clear()
	res.State = StateConfirmed
	r.lg.Info("order_confirmed", map[string]any{"order_id": res.Order.OrderID, "stock_errors": len(res.StockErrors)})
	return res
}

func (r *Relay) Confirmed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.confirmed
}

// Reset readies the relay for the next composition.
func (r *Relay) Reset() {
	r.mu.Lock()
	r.confirmed = false
	r.mu.Unlock()
}
