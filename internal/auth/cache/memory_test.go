package cache

import (
	"context"
	"testing"
	"time"

	"github.com/techfolio/authd/internal/auth/domain"

	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemory(time.Minute)

	_, ok := c.Get(ctx, "alice")
	require.False(t, ok)

	grants := domain.ResolvedGrants{
		Roles:       []domain.Role{{ID: "r1", Name: "MANAGER", Active: true}},
		Permissions: []domain.Permission{{ID: "p1", Resource: "portfolio", Action: "write", Active: true}},
	}
	c.Set(ctx, "alice", grants)

	got, ok := c.Get(ctx, "alice")
	require.True(t, ok)
	require.Equal(t, grants, got)

	c.Invalidate(ctx, "alice")
	_, ok = c.Get(ctx, "alice")
	require.False(t, ok)
}

func TestMemoryExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemory(time.Minute)

	current := time.Unix(1700000000, 0).UTC()
	c.now = func() time.Time { return current }

	c.Set(ctx, "bob", domain.ResolvedGrants{})
	_, ok := c.Get(ctx, "bob")
	require.True(t, ok)

	current = current.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "bob")
	require.False(t, ok, "entry should expire after its TTL")
}
