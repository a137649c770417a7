package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/domain"
	"kitchen-relay/internal/microservices/kitchen/registry"
	"kitchen-relay/internal/transport"
)

const defaultTimeout = 5 * time.Second

// Dispatcher routes readiness events back to the table that ordered.
// Delivery is fire-and-forget: Dispatch returns immediately and failures
// are only logged.
type Dispatcher struct {
	ch      transport.Channel
	reg     registry.Registry
	timeout time.Duration
	lg      *logger.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New builds a dispatcher. reg is only consulted in direct mode and may be nil in hub mode.
func New(ch transport.Channel, reg registry.Registry, timeout time.Duration, lg *logger.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if lg == nil {
		lg = logger.Nop()
	}
	return &Dispatcher{ch: ch, reg: reg, timeout: timeout, lg: lg}
}

func (d *Dispatcher) Dispatch(ev domain.NotificationEvent) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.lg.Warn("notification_dropped", nil, map[string]any{"table_id": ev.TableID, "reason": "dispatcher closed"})
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.lg.Error("panic_recovered", fmt.Errorf("%v", r), map[string]any{"table_id": ev.TableID})
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.deliver(ctx, ev); err != nil {
			d.lg.Error("notification_failed", err, map[string]any{"table_id": ev.TableID, "kind": string(ev.Kind)})
		}
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, ev domain.NotificationEvent) error {
	if d.ch.Mode() == transport.ModeHub {
		if err := d.ch.SendStatus(ctx, ev, ""); err != nil {
			return err
		}
		d.lg.Info("notification_sent", map[string]any{"table_id": ev.TableID, "kind": string(ev.Kind)})
		return nil
	}

	if d.reg == nil {
		return fmt.Errorf("direct mode without a registry")
	}
	route, ok, err := d.reg.Lookup(ctx, ev.TableID)
	if err != nil {
		return fmt.Errorf("lookup registration: %w", err)
	}
	if !ok {
		d.lg.Info("notification_skipped", map[string]any{"table_id": ev.TableID, "kind": string(ev.Kind)})
		return nil
	}

	// a failed send keeps the registration until it expires or is overwritten
	if err := d.ch.SendStatus(ctx, ev, route); err != nil {
		return fmt.Errorf("send to %s: %w", route, err)
	}
	if err := d.reg.Remove(ctx, ev.TableID); err != nil {
		d.lg.Warn("registration_remove_failed", err, map[string]any{"table_id": ev.TableID})
	}
	d.lg.Info("notification_sent", map[string]any{"table_id": ev.TableID, "kind": string(ev.Kind), "route": route})
	return nil
}

// Wait blocks until in-flight deliveries finish.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Close refuses new events and drains the ones in flight.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}
