package cache

import (
	"context"
	"sync"
	"time"

	"github.com/techfolio/authd/internal/auth/domain"
)

// Memory is an in-process PermissionCache with per-entry TTL. Safe for
// concurrent use.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	grants    domain.ResolvedGrants
	expiresAt time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *Memory) Get(_ context.Context, username string) (domain.ResolvedGrants, bool) {
	m.mu.RLock()
	entry, ok := m.entries[username]
	m.mu.RUnlock()

	if !ok || m.now().After(entry.expiresAt) {
		return domain.ResolvedGrants{}, false
	}
	return entry.grants, true
}

func (m *Memory) Set(_ context.Context, username string, grants domain.ResolvedGrants) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[username] = memoryEntry{
		grants:    grants,
		expiresAt: m.now().Add(m.ttl),
	}

	// Opportunistically drop stale entries so the map doesn't grow without
	// bound under a churning user population.
	if len(m.entries) > 1024 {
		now := m.now()
		for k, e := range m.entries {
			if now.After(e.expiresAt) {
				delete(m.entries, k)
			}
		}
	}
}

func (m *Memory) Invalidate(_ context.Context, username string) {
	m.mu.Lock()
	delete(m.entries, username)
	m.mu.Unlock()
}
