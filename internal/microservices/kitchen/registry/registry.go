package registry

import (
	"context"
	"sync"
	"time"
)

// Registry remembers where to send the readiness notification for a table.
type Registry interface {
	Register(ctx context.Context, tableID, route string) error
	Lookup(ctx context.Context, tableID string) (string, bool, error)
	Remove(ctx context.Context, tableID string) error
}

type entry struct {
	route   string
	expires time.Time
}

// Memory is an in-process Registry. Entries expire after ttl; Sweep drops them eagerly.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{entries: make(map[string]entry), ttl: ttl, now: time.Now}
}

func (m *Memory) Register(_ context.Context, tableID, route string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[tableID] = entry{route: route, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Lookup(_ context.Context, tableID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[tableID]
	if !ok {
		return "", false, nil
	}
	if m.now().After(e.expires) {
		delete(m.entries, tableID)
		return "", false, nil
	}
	return e.route, true, nil
}

func (m *Memory) Remove(_ context.Context, tableID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, tableID)
	return nil
}

// Sweep removes expired entries and reports how many were dropped.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for k, e := range m.entries {
		if now.After(e.expires) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
