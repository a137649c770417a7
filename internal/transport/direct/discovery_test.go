package direct

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/require"
)

func entry(instance string, port int, v4, v6 string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, "_http._tcp", mdnsDomain)
	e.Port = port
	if v4 != "" {
		e.AddrIPv4 = []net.IP{net.ParseIP(v4)}
	}
	if v6 != "" {
		e.AddrIPv6 = []net.IP{net.ParseIP(v6)}
	}
	return e
}

// scriptedBrowse answers each browse with the next batch of entries.
func scriptedBrowse(calls *atomic.Int32, batches ...[]*zeroconf.ServiceEntry) browseFunc {
	return func(ctx context.Context, _, _ string, entries chan<- *zeroconf.ServiceEntry) error {
		n := int(calls.Add(1)) - 1
		if n >= len(batches) {
			return nil
		}
		go func() {
			for _, e := range batches[n] {
				select {
				case entries <- e:
				case <-ctx.Done():
					return
				}
			}
		}()
		return nil
	}
}

func TestMDNSDiscoverCachesUntilReset(t *testing.T) {
	var calls atomic.Int32
	d := NewMDNSDiscoverer("KitchenService", "_http._tcp.", time.Second)
	d.browse = scriptedBrowse(&calls,
		[]*zeroconf.ServiceEntry{
			entry("PrinterService", 631, "10.0.0.9", ""),
			entry("KitchenService", 6000, "10.0.0.7", ""),
		},
		[]*zeroconf.ServiceEntry{
			entry("KitchenService", 6000, "", "fd00::7"),
		},
	)
	ctx := context.Background()

	addr, err := d.Discover(ctx)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.7:6000", addr)

	addr, err = d.Discover(ctx)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.7:6000", addr)
	require.Equal(t, int32(1), calls.Load())

	d.Reset()
	addr, err = d.Discover(ctx)
	require.NoError(t, err)
	require.Equal(t, "[fd00::7]:6000", addr)
	require.Equal(t, int32(2), calls.Load())
}

func TestMDNSDiscoverTimesOut(t *testing.T) {
	var calls atomic.Int32
	d := NewMDNSDiscoverer("KitchenService", "_http._tcp.", 30*time.Millisecond)
	d.browse = scriptedBrowse(&calls, []*zeroconf.ServiceEntry{entry("PrinterService", 631, "10.0.0.9", "")})

	_, err := d.Discover(context.Background())
	require.ErrorIs(t, err, ErrServiceNotFound)

	// nothing was cached, so the next call browses again
	_, err = d.Discover(context.Background())
	require.ErrorIs(t, err, ErrServiceNotFound)
	require.Equal(t, int32(2), calls.Load())
}

func TestEntryAddr(t *testing.T) {
	require.Empty(t, entryAddr(nil, "KitchenService"))
	require.Empty(t, entryAddr(entry("Other", 6000, "10.0.0.7", ""), "KitchenService"))
	require.Empty(t, entryAddr(entry("KitchenService", 6000, "", ""), "KitchenService"))
	require.Equal(t, "10.0.0.7:6000", entryAddr(entry("KitchenService", 6000, "10.0.0.7", "fd00::7"), "KitchenService"))
	require.Equal(t, "[fd00::7]:6000", entryAddr(entry("KitchenService", 6000, "", "fd00::7"), "KitchenService"))
}
