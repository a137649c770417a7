package service

import (
	"context"

	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/domain"
	"kitchen-relay/internal/microservices/kitchen/registry"
	"kitchen-relay/internal/microservices/kitchen/store"
)

// RouteFunc turns an order's origin into the address notifications go to.
type RouteFunc func(origin string) string

type KitchenServiceInterface interface {
	HandleOrder(ctx context.Context, order domain.Order, origin string)
	MarkDishReady(orderID, dishName string) (bool, error)
	CompleteOrder(orderID string) (bool, error)
	View() []OrderView
	Updates() <-chan []domain.Order
}

// OrderView is one open order as the kitchen display renders it.
type OrderView struct {
	OrderID string               `json:"order_id"`
	TableID string               `json:"table_id"`
	Table   string               `json:"table"`
	Total   string               `json:"total"`
	Plates  int                  `json:"plates"`
	Dishes  []domain.DisplayDish `json:"dishes"`
}

type KitchenService struct {
	store *store.Store
	reg   registry.Registry
	route RouteFunc
	lg    *logger.Logger
}

func NewKitchenService(st *store.Store, reg registry.Registry, route RouteFunc, lg *logger.Logger) *KitchenService {
	if lg == nil {
		lg = logger.Nop()
	}
	return &KitchenService{store: st, reg: reg, route: route, lg: lg}
}

// HandleOrder records where to reach the table, then merges the order into the store.
func (ks *KitchenService) HandleOrder(ctx context.Context, order domain.Order, origin string) {
	if ks.reg != nil && ks.route != nil && origin != "" {
		route := ks.route(origin)
		if err := ks.reg.Register(ctx, order.TableID, route); err != nil {
			ks.lg.Error("registration_failed", err, map[string]any{"table_id": order.TableID, "route": route})
		}
	}
	if err := ks.store.AddOrder(order); err != nil {
		ks.lg.Error("order_add_failed", err, map[string]any{"order_id": order.OrderID, "table_id": order.TableID})
		return
	}
	ks.lg.Info("order_accepted", map[string]any{
		"order_id": order.OrderID,
		"table_id": order.TableID,
		"plates":   order.Units(),
		"total":    order.Total().StringFixed(2),
	})
}

func (ks *KitchenService) MarkDishReady(orderID, dishName string) (bool, error) {
	ok, err := ks.store.RemoveDish(orderID, dishName)
	if err != nil {
		return false, err
	}
	if ok {
		ks.lg.Info("dish_ready", map[string]any{"order_id": orderID, "dish": dishName})
	}
	return ok, nil
}

func (ks *KitchenService) CompleteOrder(orderID string) (bool, error) {
	ok, err := ks.store.RemoveOrder(orderID)
	if err != nil {
		return false, err
	}
	if ok {
		ks.lg.Info("order_completed", map[string]any{"order_id": orderID})
	}
	return ok, nil
}

func (ks *KitchenService) View() []OrderView {
	return BuildView(ks.store.CurrentView())
}

func (ks *KitchenService) Updates() <-chan []domain.Order { return ks.store.Subscribe() }

func BuildView(orders []domain.Order) []OrderView {
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderView{
			OrderID: o.OrderID,
			TableID: o.TableID,
			Table:   domain.TableName(o.TableID),
			Total:   o.Total().StringFixed(2),
			Plates:  o.Units(),
			Dishes:  domain.ExpandDisplayDishes(o),
		})
	}
	return out
}
