package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Hub event names.
const (
	EventJoinRestaurant     = "join_restaurant"
	EventOrderSubmitted     = "order_submitted"
	EventKitchenStatus      = "kitchen_status_update"
	EventWaiterNotification = "waiter_notification"
)

var ErrInvalidMessage = errors.New("invalid message")

type DishMessage struct {
	DishName string  `json:"dishName"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// OrderMessage is the single-line JSON body of an order submission.
type OrderMessage struct {
	OrderID string        `json:"orderId"`
	TableID string        `json:"tableId"`
	Dishes  []DishMessage `json:"dishes"`
}

type StatusUpdateMessage struct {
	UserID  string    `json:"userId"`
	TableID string    `json:"tableId"`
	Message string    `json:"message"`
	Type    EventKind `json:"type"`
}

type JoinMessage struct {
	UserID string `json:"userId"`
}

// WaiterNotification is what a waiter subscriber receives from the hub.
type WaiterNotification struct {
	Message string    `json:"message"`
	TableID string    `json:"tableId"`
	Type    EventKind `json:"type"`
}

func (m StatusUpdateMessage) ToWaiterNotification() WaiterNotification {
	return WaiterNotification{Message: m.Message, TableID: m.TableID, Type: m.Type}
}

func (n WaiterNotification) Event() NotificationEvent {
	return NotificationEvent{TableID: n.TableID, Message: n.Message, Kind: n.Type}
}

func ToOrderMessage(o Order) OrderMessage {
	dishes := make([]DishMessage, 0, len(o.Dishes))
	for _, d := range o.Dishes {
		dishes = append(dishes, DishMessage{
			DishName: d.Name,
			Price:    d.UnitPrice.InexactFloat64(),
			Quantity: d.Quantity,
		})
	}
	return OrderMessage{OrderID: o.OrderID, TableID: o.TableID, Dishes: dishes}
}

func (m OrderMessage) Validate() error {
	if m.OrderID == "" {
		return fmt.Errorf("%w: orderId is required", ErrInvalidMessage)
	}
	if m.TableID == "" {
		return fmt.Errorf("%w: tableId is required", ErrInvalidMessage)
	}
	if len(m.Dishes) == 0 {
		return fmt.Errorf("%w: at least one dish is required", ErrInvalidMessage)
	}
	for _, d := range m.Dishes {
		if d.DishName == "" {
			return fmt.Errorf("%w: dishName is required", ErrInvalidMessage)
		}
		if d.Quantity < 0 {
			return fmt.Errorf("%w: negative quantity for %s", ErrInvalidMessage, d.DishName)
		}
	}
	return nil
}

func (m OrderMessage) ToOrder() Order {
	dishes := make([]Dish, 0, len(m.Dishes))
	for _, d := range m.Dishes {
		dishes = append(dishes, Dish{
			Name:      d.DishName,
			UnitPrice: decimal.NewFromFloat(d.Price),
			Quantity:  d.Quantity,
		})
	}
	return Order{OrderID: m.OrderID, TableID: m.TableID, Dishes: dishes}
}

func EncodeOrder(o Order) ([]byte, error) {
	return json.Marshal(ToOrderMessage(o))
}

// DecodeOrder parses and validates one order payload.
func DecodeOrder(b []byte) (Order, error) {
	var m OrderMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := m.Validate(); err != nil {
		return Order{}, err
	}
	return m.ToOrder(), nil
}

func ToStatusUpdate(tenant string, ev NotificationEvent) StatusUpdateMessage {
	return StatusUpdateMessage{UserID: tenant, TableID: ev.TableID, Message: ev.Message, Type: ev.Kind}
}

func DecodeStatusUpdate(b []byte) (StatusUpdateMessage, error) {
	var m StatusUpdateMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return StatusUpdateMessage{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if m.TableID == "" || m.Message == "" {
		return StatusUpdateMessage{}, fmt.Errorf("%w: tableId and message are required", ErrInvalidMessage)
	}
	if !m.Type.Valid() {
		return StatusUpdateMessage{}, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, m.Type)
	}
	return m, nil
}

// DecodeWaiterNotification parses a hub notification. type may be omitted
// but must be a known kind when present.
func DecodeWaiterNotification(b []byte) (WaiterNotification, error) {
	var n WaiterNotification
	if err := json.Unmarshal(b, &n); err != nil {
		return WaiterNotification{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if n.TableID == "" || n.Message == "" {
		return WaiterNotification{}, fmt.Errorf("%w: tableId and message are required", ErrInvalidMessage)
	}
	if n.Type != "" && !n.Type.Valid() {
		return WaiterNotification{}, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, n.Type)
	}
	return n, nil
}
