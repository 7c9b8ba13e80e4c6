package infra

import (
	"context"
	"sync"

	"whois-gateway/middleware/ratelimit/domain"
)

type Counters struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

// StatsSnapshot é a cópia dos contadores exposta em /healthz.
type StatsSnapshot struct {
	Total  Counters            `json:"total"`
	Routes map[string]Counters `json:"routes,omitempty"`
	Keys   map[string]Counters `json:"keys,omitempty"`
}

func (c *Counters) add(allowed bool) {
	if allowed {
		c.Allowed++
		return
	}
	c.Denied++
}

// MemoryStatsStore conta decisões em memória. Útil para testes e para
// rodar o gateway sem Redis; não expira nada.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   Counters
	byRoute map[string]*Counters
	byKey   map[string]*Counters

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

// WithTrackKeys liga a contagem por cliente (cardinalidade alta).
func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byRoute: make(map[string]*Counters),
		byKey:   make(map[string]*Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Allowed)
	counter(s.byRoute, ev.Route()).add(ev.Allowed)
	if s.trackKeys && ev.Key != "" {
		counter(s.byKey, string(ev.Key)).add(ev.Allowed)
	}
	return nil
}

func counter(m map[string]*Counters, k string) *Counters {
	c, ok := m[k]
	if !ok {
		c = &Counters{}
		m[k] = c
	}
	return c
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByRoute() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.byRoute)
}

func (s *MemoryStatsStore) ByKey() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.byKey)
}

func (s *MemoryStatsStore) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := StatsSnapshot{Total: s.total, Routes: snapshot(s.byRoute)}
	if s.trackKeys {
		snap.Keys = snapshot(s.byKey)
	}
	return snap
}

func snapshot(m map[string]*Counters) map[string]Counters {
	out := make(map[string]Counters, len(m))
	for k, v := range m {
		out[k] = *v
	}
	return out
}
