package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"kitchen-relay/internal/common/logger"
)

var ErrNotConnected = errors.New("rabbitmq session is not connected")

type Config struct {
	URL              string
	Exchange         string
	ReconnectInitial time.Duration
	ReconnectMax     time.Duration
	DialTimeout      time.Duration
}

// Session keeps one connection to the broker alive, redialling forever with
// capped backoff. Consumers must re-subscribe after WaitReady once their
// delivery channel closes.
type Session struct {
	cfg Config
	lg  *logger.Logger

	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	ready chan struct{}
	hooks []func(context.Context) error

	closeOnce sync.Once
	done      chan struct{}
}

func NewSession(cfg Config, lg *logger.Logger) *Session {
	if lg == nil {
		lg = logger.Nop()
	}
	return &Session{cfg: cfg, lg: lg, ready: make(chan struct{}), done: make(chan struct{})}
}

// OnConnect registers fn to run after every successful (re)connect.
func (s *Session) OnConnect(fn func(context.Context) error) {
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// Run blocks until ctx is cancelled or Close is called.
func (s *Session) Run(ctx context.Context) error {
	delay := s.cfg.ReconnectInitial
	for {
		select {
		case <-ctx.Done():
			s.teardown()
			return nil
		case <-s.done:
			s.teardown()
			return nil
		default:
		}

		conn, ch, err := s.dial()
		if err != nil {
			s.lg.Error("hub_connect_failed", err, map[string]any{"retry_in": delay.String()})
			if !s.sleep(ctx, delay) {
				s.teardown()
				return nil
			}
			delay = nextDelay(delay, s.cfg.ReconnectMax)
			continue
		}
		delay = s.cfg.ReconnectInitial

		closed := conn.NotifyClose(make(chan *amqp.Error, 1))
		s.set(conn, ch)
		s.lg.Info("hub_connected", map[string]any{"exchange": s.cfg.Exchange})
		s.runHooks(ctx)

		select {
		case <-ctx.Done():
			s.teardown()
			return nil
		case <-s.done:
			s.teardown()
			return nil
		case amqpErr := <-closed:
			s.clear()
			var err error
			if amqpErr != nil {
				err = amqpErr
			}
			s.lg.Warn("hub_disconnected", err, map[string]any{"retry_in": delay.String()})
			if !s.sleep(ctx, delay) {
				s.teardown()
				return nil
			}
		}
	}
}

func (s *Session) dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(s.cfg.URL, amqp.Config{
		Dial:      amqp.DefaultDial(s.cfg.DialTimeout),
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(s.cfg.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange %s: %w", s.cfg.Exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("enable confirms: %w", err)
	}
	return conn, ch, nil
}

func (s *Session) runHooks(ctx context.Context) {
	s.mu.Lock()
	hooks := append([]func(context.Context) error(nil), s.hooks...)
	s.mu.Unlock()
	for _, fn := range hooks {
		if err := fn(ctx); err != nil {
			s.lg.Error("hub_on_connect_failed", err, nil)
		}
	}
}

func (s *Session) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-s.done:
		return false
	}
}

func (s *Session) set(conn *amqp.Connection, ch *amqp.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn, s.ch = conn, ch
	close(s.ready)
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch == nil {
		return
	}
	s.conn, s.ch = nil, nil
	s.ready = make(chan struct{})
}

func (s *Session) teardown() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	s.clear()
	if conn != nil {
		_ = conn.Close()
	}
}

// Connected is a light health check.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil && !s.conn.IsClosed()
}

// WaitReady blocks until the session is connected.
func (s *Session) WaitReady(ctx context.Context) error {
	s.mu.Lock()
	ready := s.ready
	s.mu.Unlock()
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrNotConnected
	}
}

// Publish sends body to the exchange and waits for the broker's confirm of
// that message. Confirms are matched by delivery tag, so a publish that gave
// up on ctx never hands its late confirm to the next one.
func (s *Session) Publish(ctx context.Context, key, eventType string, body []byte) error {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()
	if ch == nil {
		return ErrNotConnected
	}

	dc, err := ch.PublishWithDeferredConfirmWithContext(ctx, s.cfg.Exchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Transient,
		ContentType:  "application/json",
		Type:         eventType,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	if dc == nil {
		// channel not in confirm mode
		return nil
	}
	return awaitConfirm(ctx, key, dc)
}

type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

func awaitConfirm(ctx context.Context, key string, c confirmation) error {
	ack, err := c.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	if !ack {
		return fmt.Errorf("publish %s: nack from broker", key)
	}
	return nil
}

// Consume binds a fresh exclusive queue to keys on the current channel.
// The returned stop func cancels the consumer; the delivery channel also
// closes when the connection drops.
func (s *Session) Consume(keys ...string) (<-chan amqp.Delivery, func(), error) {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()
	if ch == nil {
		return nil, nil, ErrNotConnected
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("declare queue: %w", err)
	}
	for _, key := range keys {
		if err := ch.QueueBind(q.Name, key, s.cfg.Exchange, false, nil); err != nil {
			return nil, nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	tag := "relay-" + uuid.NewString()
	deliveries, err := ch.Consume(q.Name, tag, true, true, false, false, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("consume %s: %w", q.Name, err)
	}
	stop := func() { _ = ch.Cancel(tag, false) }
	return deliveries, stop, nil
}

func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.teardown()
	})
	return nil
}

// nextDelay doubles d up to max.
func nextDelay(d, max time.Duration) time.Duration {
	if d <= 0 {
		return max
	}
	d *= 2
	if d > max {
		return max
	}
	return d
}
