package waiter

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/config"
	"kitchen-relay/internal/domain"
	"kitchen-relay/internal/microservices/waiter/backend"
	"kitchen-relay/internal/microservices/waiter/service"
	"kitchen-relay/internal/transport/selector"
)

// RunOrder composes one order for table from items (menu item -> quantity) and runs the relay workflow.
func RunOrder(ctx context.Context, cfg config.Config, table string, items map[string]int) (service.Result, error) {
	lg := logger.For("waiter")
	if cfg.TenantID == "" {
		return service.Result{}, errors.New("tenant_id is required")
	}

	opened, err := selector.Open(cfg, lg)
	if err != nil {
		return service.Result{}, err
	}
	defer opened.Channel.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := opened.Run(runCtx); err != nil {
			lg.Error("hub_session_stopped", err, nil)
		}
	}()

	// a hub that never comes up only costs the kitchen relay, not the order
	readyCtx, readyCancel := context.WithTimeout(ctx, cfg.Hub.DialTimeout)
	if err := opened.WaitReady(readyCtx); err != nil {
		lg.Warn("hub_not_ready", err, map[string]any{"timeout": cfg.Hub.DialTimeout.String()})
	}
	readyCancel()

	be := backend.NewClient(cfg.Backend.URL, cfg.TenantID, cfg.Backend.Timeout)
	menu, err := be.ListMenu(ctx)
	if err != nil {
		return service.Result{}, fmt.Errorf("load menu: %w", err)
	}

	sel := service.NewSelection(menu)
	for name, q := range items {
		got, err := sel.Set(name, q)
		if err != nil {
			return service.Result{}, err
		}
		if got != q {
			lg.Warn("quantity_clamped", nil, map[string]any{"item": name, "requested": q, "kept": got})
		}
	}

	svc := service.New(be, opened.Channel, cfg.TenantID, lg)
	res := svc.RelayService.Submit(ctx, table, sel)
	if res.State == service.StateFailed {
		return res, res.Err
	}
	return res, nil
}

// RunListener logs every readiness notification until ctx is cancelled.
func RunListener(ctx context.Context, cfg config.Config, notify func(domain.NotificationEvent)) error {
	lg := logger.For("waiter")

	opened, err := selector.Open(cfg, lg)
	if err != nil {
		return err
	}
	defer opened.Channel.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return opened.Run(gctx) })
	g.Go(func() error {
		lg.Info("listening_for_notifications", map[string]any{"mode": cfg.Transport.Mode, "table_filter": cfg.Transport.TableFilter})
		return opened.Channel.ServeNotifications(gctx, func(_ context.Context, ev domain.NotificationEvent) {
			lg.Info("notification_received", map[string]any{"table_id": ev.TableID, "kind": string(ev.Kind), "message": ev.Message})
			if notify != nil {
				notify(ev)
			}
		})
	})
	err = g.Wait()
	lg.Info("listener_stopping", nil)
	return err
}
