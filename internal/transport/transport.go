package transport

import (
	"context"
	"errors"

	"kitchen-relay/internal/domain"
)

type Mode string

const (
	ModeDirect Mode = "direct"
	ModeHub    Mode = "hub"
)

var (
	ErrKitchenUnreachable = errors.New("kitchen unreachable")
	ErrNotConnected       = errors.New("hub not connected")
	ErrClosed             = errors.New("channel closed")

	// ErrMalformedMessage marks a payload that was dropped at intake.
	ErrMalformedMessage = domain.ErrInvalidMessage
)

// OrderHandler receives one decoded order. origin identifies the submitter:
// the peer IP in direct mode, the tenant in hub mode.
type OrderHandler func(ctx context.Context, order domain.Order, origin string)

type NotificationHandler func(ctx context.Context, ev domain.NotificationEvent)

// Channel moves orders waiter→kitchen and readiness events kitchen→waiter.
type Channel interface {
	Mode() Mode
	SubmitOrder(ctx context.Context, order domain.Order) error
	// ServeOrders blocks until ctx is cancelled.
	ServeOrders(ctx context.Context, h OrderHandler) error
	// SendStatus delivers ev; route is a host:port in direct mode and ignored in hub mode.
	SendStatus(ctx context.Context, ev domain.NotificationEvent, route string) error
	// ServeNotifications blocks until ctx is cancelled.
	ServeNotifications(ctx context.Context, h NotificationHandler) error
	Close() error
}
