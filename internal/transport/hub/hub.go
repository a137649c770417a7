package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/connections/rabbitmq"
	"kitchen-relay/internal/domain"
	"kitchen-relay/internal/transport"
)

// Session is the slice of rabbitmq.Session the hub needs.
type Session interface {
	OnConnect(fn func(context.Context) error)
	WaitReady(ctx context.Context) error
	Publish(ctx context.Context, key, eventType string, body []byte) error
	Consume(keys ...string) (<-chan amqp.Delivery, func(), error)
	Close() error
}

// Channel routes events through the shared exchange, scoped by tenant.
type Channel struct {
	sess        Session
	tenant      string
	tableFilter string
	lg          *logger.Logger
}

func New(sess Session, tenant, tableFilter string, lg *logger.Logger) *Channel {
	if lg == nil {
		lg = logger.Nop()
	}
	c := &Channel{sess: sess, tenant: tenant, tableFilter: tableFilter, lg: lg}
	sess.OnConnect(c.join)
	return c
}

func RoutingKey(tenant, event string) string { return tenant + "/" + event }

func (c *Channel) Mode() transport.Mode { return transport.ModeHub }

func (c *Channel) join(ctx context.Context) error {
	body, err := json.Marshal(domain.JoinMessage{UserID: c.tenant})
	if err != nil {
		return err
	}
	if err := c.sess.Publish(ctx, RoutingKey(c.tenant, domain.EventJoinRestaurant), domain.EventJoinRestaurant, body); err != nil {
		return fmt.Errorf("join %s: %w", c.tenant, err)
	}
	c.lg.Info("hub_joined", map[string]any{"tenant": c.tenant})
	return nil
}

func (c *Channel) publish(ctx context.Context, event string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	err = c.sess.Publish(ctx, RoutingKey(c.tenant, event), event, body)
	if errors.Is(err, rabbitmq.ErrNotConnected) {
		return transport.ErrNotConnected
	}
	return err
}

func (c *Channel) SubmitOrder(ctx context.Context, order domain.Order) error {
	if err := c.publish(ctx, domain.EventOrderSubmitted, domain.ToOrderMessage(order)); err != nil {
		return fmt.Errorf("%w: %w", transport.ErrKitchenUnreachable, err)
	}
	c.lg.Debug("order_published", map[string]any{"order_id": order.OrderID, "table_id": order.TableID})
	return nil
}

// SendStatus ignores route; the tenant addresses the waiter.
func (c *Channel) SendStatus(ctx context.Context, ev domain.NotificationEvent, _ string) error {
	return c.publish(ctx, domain.EventKitchenStatus, domain.ToStatusUpdate(c.tenant, ev))
}

func (c *Channel) ServeOrders(ctx context.Context, h transport.OrderHandler) error {
	return c.consume(ctx, []string{RoutingKey(c.tenant, domain.EventOrderSubmitted)}, func(ctx context.Context, d amqp.Delivery) {
		order, err := domain.DecodeOrder(d.Body)
		if err != nil {
			c.lg.Error("order_decode_failed", err, map[string]any{"message_id": d.MessageId})
			return
		}
		h(ctx, order, c.tenant)
	})
}

func (c *Channel) ServeNotifications(ctx context.Context, h transport.NotificationHandler) error {
	keys := []string{
		RoutingKey(c.tenant, domain.EventKitchenStatus),
		RoutingKey(c.tenant, domain.EventWaiterNotification),
	}
	return c.consume(ctx, keys, func(ctx context.Context, d amqp.Delivery) {
		ev, err := c.decodeNotification(d)
		if err != nil {
			c.lg.Error("notification_decode_failed", err, map[string]any{"message_id": d.MessageId, "type": d.Type})
			return
		}
		if c.tableFilter != "" && ev.TableID != c.tableFilter {
			return
		}
		h(ctx, ev)
	})
}

func (c *Channel) decodeNotification(d amqp.Delivery) (domain.NotificationEvent, error) {
	switch d.Type {
	case domain.EventWaiterNotification:
		n, err := domain.DecodeWaiterNotification(d.Body)
		if err != nil {
			return domain.NotificationEvent{}, err
		}
		return n.Event(), nil
	default:
		m, err := domain.DecodeStatusUpdate(d.Body)
		if err != nil {
			return domain.NotificationEvent{}, err
		}
		if m.UserID != "" && m.UserID != c.tenant {
			return domain.NotificationEvent{}, fmt.Errorf("%w: status for tenant %s", domain.ErrInvalidMessage, m.UserID)
		}
		return m.ToWaiterNotification().Event(), nil
	}
}

// consume re-subscribes after every reconnect until ctx is cancelled.
func (c *Channel) consume(ctx context.Context, keys []string, handle func(context.Context, amqp.Delivery)) error {
	for {
		if err := c.sess.WaitReady(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		deliveries, stop, err := c.sess.Consume(keys...)
		if err != nil {
			c.lg.Error("hub_consume_failed", err, map[string]any{"keys": keys})
			if errors.Is(err, rabbitmq.ErrNotConnected) {
				continue
			}
			return err
		}
		c.lg.Info("hub_consuming", map[string]any{"keys": keys})
		if done := c.drain(ctx, deliveries, handle); done {
			stop()
			return nil
		}
		c.lg.Warn("hub_consumer_closed", nil, map[string]any{"keys": keys})
	}
}

// drain reports true when ctx ended, false when the delivery channel closed.
func (c *Channel) drain(ctx context.Context, deliveries <-chan amqp.Delivery, handle func(context.Context, amqp.Delivery)) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case d, ok := <-deliveries:
			if !ok {
				return false
			}
			c.safeHandle(ctx, d, handle)
		}
	}
}

func (c *Channel) safeHandle(ctx context.Context, d amqp.Delivery, handle func(context.Context, amqp.Delivery)) {
	defer func() {
		if r := recover(); r != nil {
			c.lg.Error("panic_recovered", fmt.Errorf("%v", r), map[string]any{"message_id": d.MessageId})
		}
	}()
	handle(ctx, d)
}

func (c *Channel) Close() error { return c.sess.Close() }
