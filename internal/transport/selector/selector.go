// Package selector builds the configured transport variant.
package selector

import (
	"context"
	"errors"
	"fmt"

	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/config"
	"kitchen-relay/internal/connections/rabbitmq"
	"kitchen-relay/internal/transport"
	"kitchen-relay/internal/transport/direct"
	"kitchen-relay/internal/transport/hub"
)

// Opened is a transport ready for use.
type Opened struct {
	Channel transport.Channel
	// Direct is set in direct mode so the kitchen can build notify routes.
	Direct *direct.Channel
	// Session is set in hub mode; it must be Run for the channel to work.
	Session *rabbitmq.Session
}

// Run keeps the hub session alive until ctx ends. It returns at once in direct mode.
func (o *Opened) Run(ctx context.Context) error {
	if o.Session == nil {
		return nil
	}
	return o.Session.Run(ctx)
}

// WaitReady blocks until the hub is connected. Direct mode is always ready.
func (o *Opened) WaitReady(ctx context.Context) error {
	if o.Session == nil {
		return nil
	}
	return o.Session.WaitReady(ctx)
}

func Open(cfg config.Config, lg *logger.Logger) (*Opened, error) {
	switch transport.Mode(cfg.Transport.Mode) {
	case transport.ModeDirect:
		var d direct.Discoverer
		if cfg.Transport.KitchenAddr != "" {
			d = direct.StaticDiscoverer{Addr: cfg.Transport.KitchenAddr}
		} else {
			d = direct.NewMDNSDiscoverer(cfg.Transport.ServiceName, cfg.Transport.ServiceType, cfg.Transport.DiscoveryTimeout)
		}
		ch := direct.New(direct.Config{
			KitchenPort:   cfg.Transport.KitchenPort,
			NotifyPort:    cfg.Transport.NotifyPort,
			NotifyTimeout: cfg.Transport.NotifyTimeout,
		}, d, lg)
		return &Opened{Channel: ch, Direct: ch}, nil

	case transport.ModeHub:
		if cfg.TenantID == "" {
			return nil, errors.New("hub mode requires tenant_id")
		}
		sess := rabbitmq.NewSession(rabbitmq.Config{
			URL:              cfg.Hub.URL,
			Exchange:         cfg.Hub.Exchange,
			ReconnectInitial: cfg.Hub.ReconnectInitial,
			ReconnectMax:     cfg.Hub.ReconnectMax,
			DialTimeout:      cfg.Hub.DialTimeout,
		}, lg)
		ch := hub.New(sess, cfg.TenantID, cfg.Transport.TableFilter, lg)
		return &Opened{Channel: ch, Session: sess}, nil

	default:
		return nil, fmt.Errorf("unknown transport mode %q", cfg.Transport.Mode)
	}
}
