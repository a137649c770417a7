package direct

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/domain"
	"kitchen-relay/internal/transport"
)

const (
	maxLineBytes   = 1 << 20
	readTimeout    = 10 * time.Second
	acceptBackoff  = 50 * time.Millisecond
	defaultTimeout = 5 * time.Second
)

type Config struct {
	ListenHost    string // empty binds all interfaces
	KitchenPort   int
	NotifyPort    int
	NotifyTimeout time.Duration // dial+write budget for every outbound connection
}

// Channel is the point-to-point transport: one TCP connection per message.
type Channel struct {
	cfg        Config
	discoverer Discoverer
	lg         *logger.Logger

	mu     sync.Mutex
	closed bool
	cancel []context.CancelFunc
}

func New(cfg Config, d Discoverer, lg *logger.Logger) *Channel {
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultTimeout
	}
	if lg == nil {
		lg = logger.Nop()
	}
	return &Channel{cfg: cfg, discoverer: d, lg: lg}
}

func (c *Channel) Mode() transport.Mode { return transport.ModeDirect }

// NotifyRoute builds the waiter notification address for a peer IP.
func (c *Channel) NotifyRoute(origin string) string {
	return net.JoinHostPort(origin, strconv.Itoa(c.cfg.NotifyPort))
}

func (c *Channel) SubmitOrder(ctx context.Context, order domain.Order) error {
	if c.isClosed() {
		return transport.ErrClosed
	}
	addr, err := c.discoverer.Discover(ctx)
	if err != nil {
		return fmt.Errorf("%w: discovery: %v", transport.ErrKitchenUnreachable, err)
	}
	body, err := domain.EncodeOrder(order)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	if err := c.sendLine(ctx, addr, body); err != nil {
		c.discoverer.Reset()
		return fmt.Errorf("%w: %v", transport.ErrKitchenUnreachable, err)
	}
	c.lg.Debug("order_sent", map[string]any{"order_id": order.OrderID, "table_id": order.TableID, "kitchen": addr})
	return nil
}

func (c *Channel) SendStatus(ctx context.Context, ev domain.NotificationEvent, route string) error {
	if route == "" {
		return errors.New("direct mode requires a route")
	}
	return c.sendLine(ctx, route, []byte(ev.Message))
}

func (c *Channel) sendLine(ctx context.Context, addr string, line []byte) error {
	dctx, cancel := context.WithTimeout(ctx, c.cfg.NotifyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if dl, ok := dctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(dl)
	}
	w := bufio.NewWriter(conn)
	if _, err := w.Write(line); err != nil {
		return fmt.Errorf("write %s: %w", addr, err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write %s: %w", addr, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", addr, err)
	}
	return nil
}

func (c *Channel) ServeOrders(ctx context.Context, h transport.OrderHandler) error {
	ln, err := c.listen(c.cfg.KitchenPort)
	if err != nil {
		return err
	}
	return c.ServeOrdersListener(ctx, ln, h)
}

// ServeOrdersListener runs the order intake on an already bound listener.
func (c *Channel) ServeOrdersListener(ctx context.Context, ln net.Listener, h transport.OrderHandler) error {
	c.lg.Info("order_intake_listening", map[string]any{"addr": ln.Addr().String()})
	return c.serve(ctx, ln, func(ctx context.Context, conn net.Conn, line []byte) {
		order, err := domain.DecodeOrder(line)
		if err != nil {
			c.lg.Error("order_decode_failed", err, map[string]any{"peer": conn.RemoteAddr().String()})
			return
		}
		origin := peerHost(conn.RemoteAddr())
		c.lg.Debug("order_received", map[string]any{"order_id": order.OrderID, "table_id": order.TableID, "peer": origin})
		h(ctx, order, origin)
	})
}

func (c *Channel) ServeNotifications(ctx context.Context, h transport.NotificationHandler) error {
	ln, err := c.listen(c.cfg.NotifyPort)
	if err != nil {
		return err
	}
	return c.ServeNotificationsListener(ctx, ln, h)
}

func (c *Channel) ServeNotificationsListener(ctx context.Context, ln net.Listener, h transport.NotificationHandler) error {
	c.lg.Info("notification_intake_listening", map[string]any{"addr": ln.Addr().String()})
	return c.serve(ctx, ln, func(ctx context.Context, _ net.Conn, line []byte) {
		h(ctx, domain.NotificationEvent{Message: string(line)})
	})
}

func (c *Channel) listen(port int) (net.Listener, error) {
	if c.isClosed() {
		return nil, transport.ErrClosed
	}
	addr := net.JoinHostPort(c.cfg.ListenHost, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

// serve runs the accept loop until ctx is cancelled or Close is called. Each
// connection is handled in its own goroutine within the same group, so the
// whole group is torn down together and the listener is always released.
func (c *Channel) serve(ctx context.Context, ln net.Listener, handle func(context.Context, net.Conn, []byte)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !c.track(cancel) {
		_ = ln.Close()
		return transport.ErrClosed
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		_ = ln.Close()
		return nil
	})
	g.Go(func() error {
		defer cancel()
		defer ln.Close()
		for {
			conn, err := ln.Accept()
			if err != nil {
				if gctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}
				c.lg.Error("accept_failed", err, nil)
				select {
				case <-time.After(acceptBackoff):
					continue
				case <-gctx.Done():
					return nil
				}
			}
			g.Go(func() error {
				c.handleConn(gctx, conn, handle)
				return nil
			})
		}
	})

	err := g.Wait()
	c.lg.Info("intake_stopped", map[string]any{"addr": ln.Addr().String()})
	return err
}

func (c *Channel) handleConn(ctx context.Context, conn net.Conn, handle func(context.Context, net.Conn, []byte)) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			c.lg.Error("panic_recovered", fmt.Errorf("%v", r), map[string]any{"peer": conn.RemoteAddr().String()})
		}
	}()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			c.lg.Error("read_failed", err, map[string]any{"peer": conn.RemoteAddr().String()})
			return
		}
		c.lg.Debug("empty_connection", map[string]any{"peer": conn.RemoteAddr().String()})
		return
	}
	line := strings.TrimRight(sc.Text(), "\r")
	if line == "" {
		c.lg.Debug("empty_connection", map[string]any{"peer": conn.RemoteAddr().String()})
		return
	}
	handle(ctx, conn, []byte(line))
}

func (c *Channel) track(cancel context.CancelFunc) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.cancel = append(c.cancel, cancel)
	return true
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close stops every running intake loop.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for _, cancel := range c.cancel {
		cancel()
	}
	c.cancel = nil
	return nil
}

func peerHost(a net.Addr) string {
	if tcp, ok := a.(*net.TCPAddr); ok {
		return tcp.IP.String()
	}
	host, _, err := net.SplitHostPort(a.String())
	if err != nil {
		return a.String()
	}
	return host
}
