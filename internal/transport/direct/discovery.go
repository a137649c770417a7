package direct

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const mdnsDomain = "local."

var ErrServiceNotFound = errors.New("kitchen service not found")

// Discoverer resolves the kitchen's order intake address.
type Discoverer interface {
	Discover(ctx context.Context) (string, error)
	// Reset drops any cached result so the next Discover resolves again.
	Reset()
}

// StaticDiscoverer always returns a configured address.
type StaticDiscoverer struct{ Addr string }

func (s StaticDiscoverer) Discover(context.Context) (string, error) {
	if s.Addr == "" {
		return "", ErrServiceNotFound
	}
	return s.Addr, nil
}

func (StaticDiscoverer) Reset() {}

// MDNSDiscoverer browses the LAN for the kitchen advertisement. The first
// resolved address is cached until Reset.
type MDNSDiscoverer struct {
	instance string
	service  string
	timeout  time.Duration
	browse   browseFunc

	mu     sync.Mutex
	cached string
}

// browseFunc streams service entries into entries until ctx ends.
type browseFunc func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

func NewMDNSDiscoverer(instance, serviceType string, timeout time.Duration) *MDNSDiscoverer {
	return &MDNSDiscoverer{
		instance: instance,
		service:  normalizeServiceType(serviceType),
		timeout:  timeout,
		browse:   zeroconfBrowse,
	}
}

func zeroconfBrowse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("create resolver: %w", err)
	}
	return resolver.Browse(ctx, service, domain, entries)
}

func (d *MDNSDiscoverer) Discover(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cached != "" {
		return d.cached, nil
	}

	bctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 8)
	if err := d.browse(bctx, d.service, mdnsDomain, entries); err != nil {
		return "", fmt.Errorf("browse %s: %w", d.service, err)
	}

	for {
		select {
		case <-bctx.Done():
			return "", fmt.Errorf("%w: %s within %s", ErrServiceNotFound, d.instance, d.timeout)
		case e, ok := <-entries:
			if !ok {
				return "", fmt.Errorf("%w: %s", ErrServiceNotFound, d.instance)
			}
			if addr := entryAddr(e, d.instance); addr != "" {
				d.cached = addr
				return addr, nil
			}
		}
	}
}

func (d *MDNSDiscoverer) Reset() {
	d.mu.Lock()
	d.cached = ""
	d.mu.Unlock()
}

func entryAddr(e *zeroconf.ServiceEntry, instance string) string {
	if e == nil || e.Instance != instance {
		return ""
	}
	var ip net.IP
	switch {
	case len(e.AddrIPv4) > 0:
		ip = e.AddrIPv4[0]
	case len(e.AddrIPv6) > 0:
		ip = e.AddrIPv6[0]
	default:
		return ""
	}
	return net.JoinHostPort(ip.String(), strconv.Itoa(e.Port))
}

// Advertiser publishes the kitchen on the LAN.
type Advertiser interface {
	Advertise() error
	Shutdown()
}

type MDNSAdvertiser struct {
	instance string
	service  string
	port     int
	server   *zeroconf.Server
}

func NewMDNSAdvertiser(instance, serviceType string, port int) *MDNSAdvertiser {
	return &MDNSAdvertiser{instance: instance, service: normalizeServiceType(serviceType), port: port}
}

func (a *MDNSAdvertiser) Advertise() error {
	srv, err := zeroconf.Register(a.instance, a.service, mdnsDomain, a.port, []string{"role=kitchen"}, nil)
	if err != nil {
		return fmt.Errorf("register %s: %w", a.instance, err)
	}
	a.server = srv
	return nil
}

func (a *MDNSAdvertiser) Shutdown() {
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// normalizeServiceType turns "_http._tcp." into the "_http._tcp" form zeroconf expects.
func normalizeServiceType(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ".")
}
