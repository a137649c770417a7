package domain

import "fmt"

type EventKind string

const (
	DishReadyKind     EventKind = "DISH_READY"
	OrderCompleteKind EventKind = "ORDER_COMPLETE"
)

func (k EventKind) Valid() bool { return k == DishReadyKind || k == OrderCompleteKind }

// NotificationEvent is transient and fire-and-forget.
type NotificationEvent struct {
	TableID string
	Message string
	Kind    EventKind
}

func DishReady(tableID, dishName string) NotificationEvent {
	return NotificationEvent{
		TableID: tableID,
		Message: fmt.Sprintf("Dish %s for %s is ready", dishName, TableName(tableID)),
		Kind:    DishReadyKind,
	}
}

func OrderComplete(tableID string) NotificationEvent {
	return NotificationEvent{
		TableID: tableID,
		Message: fmt.Sprintf("The order of %s is complete", TableName(tableID)),
		Kind:    OrderCompleteKind,
	}
}
