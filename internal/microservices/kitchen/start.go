package kitchen

import (
	"context"
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"kitchen-relay/internal/common/httpx"
	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/config"
	redisconn "kitchen-relay/internal/connections/redis"
	"kitchen-relay/internal/microservices/kitchen/dispatcher"
	"kitchen-relay/internal/microservices/kitchen/handlers"
	"kitchen-relay/internal/microservices/kitchen/registry"
	"kitchen-relay/internal/microservices/kitchen/service"
	"kitchen-relay/internal/microservices/kitchen/store"
	"kitchen-relay/internal/transport/direct"
	"kitchen-relay/internal/transport/selector"
)

// Run starts the kitchen display process and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config) error {
	lg := logger.For("kitchen")

	opened, err := selector.Open(cfg, lg)
	if err != nil {
		return err
	}
	ch := opened.Channel
	defer ch.Close()

	var (
		reg   registry.Registry
		route service.RouteFunc
		mem   *registry.Memory
	)
	if opened.Direct != nil {
		route = opened.Direct.NotifyRoute
		switch cfg.Registry.Driver {
		case "redis":
			client, err := redisconn.Connect(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			defer client.Close()
			reg = registry.NewRedis(client, cfg.Registry.TTL)
		default:
			mem = registry.NewMemory(cfg.Registry.TTL)
			reg = mem
		}
	}

	disp := dispatcher.New(ch, reg, cfg.Transport.NotifyTimeout, lg)
	defer disp.Close()
	st := store.New(disp)
	defer st.Close()

	svc := service.New(st, reg, route, lg)
	h := handlers.New(svc)
	if opened.Session != nil {
		h.KitchenHandler.SetTransportCheck(opened.Session.Connected)
	}
	srv := httpx.New(cfg.HTTP.KitchenAddr, h.Router(), lg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return opened.Run(gctx) })

	if opened.Direct != nil {
		adv := direct.NewMDNSAdvertiser(cfg.Transport.ServiceName, cfg.Transport.ServiceType, cfg.Transport.KitchenPort)
		if err := adv.Advertise(); err != nil {
			// a static kitchen_addr on the waiters still works
			lg.Warn("advertise_failed", err, map[string]any{"service": cfg.Transport.ServiceName})
		} else {
			lg.Info("advertised", map[string]any{"service": cfg.Transport.ServiceName, "port": cfg.Transport.KitchenPort})
			defer adv.Shutdown()
		}
	}

	if mem != nil {
		g.Go(func() error { return runSweeper(gctx, mem, cfg, lg) })
	}

	g.Go(func() error {
		return ch.ServeOrders(gctx, svc.KitchenService.HandleOrder)
	})
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error {
		watchDisplay(gctx, svc.KitchenService, lg)
		return nil
	})

	err = g.Wait()
	lg.Info("kitchen_stopping", nil)
	return err
}

func runSweeper(ctx context.Context, mem *registry.Memory, cfg config.Config, lg *logger.Logger) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Registry.SweepInterval),
		gocron.NewTask(func() {
			if n := mem.Sweep(); n > 0 {
				lg.Info("registrations_expired", map[string]any{"count": n, "remaining": mem.Len()})
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	scheduler.Start()
	<-ctx.Done()
	return scheduler.Shutdown()
}

// watchDisplay logs every refresh of the live order view.
func watchDisplay(ctx context.Context, ks service.KitchenServiceInterface, lg *logger.Logger) {
	updates := ks.Updates()
	for {
		select {
		case <-ctx.Done():
			return
		case orders, ok := <-updates:
			if !ok {
				return
			}
			plates := 0
			for _, o := range orders {
				plates += o.Units()
			}
			lg.Debug("display_refreshed", map[string]any{"orders": len(orders), "plates": plates})
		}
	}
}
