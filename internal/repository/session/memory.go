package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jaennil/weather_maps/pkg/metrics"
)

const memoryStoreName = "memory"

// MemoryStore keeps sessions in a sync.Map. Lookups never block each other
// and a write only touches its own key, so a burst of tile requests against
// one session does not contend with session creation.
type MemoryStore struct {
	m    *TypedSyncMap
	now  Clock
	size atomic.Int64
}

// TypedSyncMap is a sync.Map restricted to session ids and entries.
type TypedSyncMap struct {
	m sync.Map
}

func (c *TypedSyncMap) Load(id string) (*Session, bool) {
	v, exists := c.m.Load(id)
	if !exists {
		return nil, false
	}
	return v.(*Session), true
}

// LoadOrStore stores s unless id is taken and reports whether it was taken.
func (c *TypedSyncMap) LoadOrStore(id string, s *Session) bool {
	_, loaded := c.m.LoadOrStore(id, s)
	return loaded
}

// CompareAndDelete deletes id only while it still maps to s.
func (c *TypedSyncMap) CompareAndDelete(id string, s *Session) bool {
	return c.m.CompareAndDelete(id, s)
}

func (c *TypedSyncMap) Range(f func(id string, s *Session) bool) {
	c.m.Range(func(k, v any) bool {
		return f(k.(string), v.(*Session))
	})
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	o := newOptions(opts)
	return &MemoryStore{
		m:   &TypedSyncMap{},
		now: o.now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Create(_ context.Context, resourceName string) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}

	entry := &Session{
		ID:           id,
		ResourceName: resourceName,
		CreatedAt:    s.now(),
	}
	if s.m.LoadOrStore(id, entry) {
		return "", ErrIDCollision
	}
	s.size.Add(1)

	metrics.SessionsCreated.WithLabelValues(memoryStoreName).Inc()
	return id, nil
}

func (s *MemoryStore) Resolve(_ context.Context, id string) (string, error) {
	entry, ok := s.m.Load(id)
	if !ok {
		metrics.SessionResolves.WithLabelValues(memoryStoreName, "not_found").Inc()
		return "", ErrNotFound
	}

	if entry.Expired(s.now()) {
		if s.m.CompareAndDelete(id, entry) {
			s.size.Add(-1)
		}
		metrics.SessionResolves.WithLabelValues(memoryStoreName, "expired").Inc()
		return "", ErrExpired
	}

	metrics.SessionResolves.WithLabelValues(memoryStoreName, "ok").Inc()
	return entry.ResourceName, nil
}

func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	now := s.now()
	removed := 0

	s.m.Range(func(id string, entry *Session) bool {
		if entry.Expired(now) && s.m.CompareAndDelete(id, entry) {
			s.size.Add(-1)
			removed++
		}
		return true
	})

	metrics.SessionsSwept.WithLabelValues(memoryStoreName).Add(float64(removed))
	return removed, nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	return int(s.size.Load())
}

func (s *MemoryStore) Close() error {
	return nil
}
