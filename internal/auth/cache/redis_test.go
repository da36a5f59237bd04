package cache

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/techfolio/authd/internal/auth/domain"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer starts a throwaway redis and returns its address.
func setupRedisContainer(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForListeningPort("6379/tcp").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mappedPort, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return net.JoinHostPort(host, mappedPort.Port())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleGrants() domain.ResolvedGrants {
	return domain.ResolvedGrants{
		Roles: []domain.Role{
			{ID: "role-1", Name: "MANAGER", Active: true},
		},
		Permissions: []domain.Permission{
			{ID: "perm-1", Resource: "portfolio", Action: "write", DisplayName: "Write portfolio", Active: true},
		},
	}
}

func TestRedisRoundTrip(t *testing.T) {
	addr := setupRedisContainer(t)
	ctx := context.Background()

	c, err := NewRedis(addr, "", 0, time.Minute, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, ok := c.Get(ctx, "alice")
	require.False(t, ok, "empty cache misses")

	grants := sampleGrants()
	c.Set(ctx, "alice", grants)

	got, ok := c.Get(ctx, "alice")
	require.True(t, ok)
	require.Equal(t, grants, got)

	_, ok = c.Get(ctx, "bob")
	require.False(t, ok, "entries are per-username")

	c.Invalidate(ctx, "alice")
	_, ok = c.Get(ctx, "alice")
	require.False(t, ok, "invalidated entries miss")
}

func TestRedisCorruptEntryReadsAsMiss(t *testing.T) {
	addr := setupRedisContainer(t)
	ctx := context.Background()

	c, err := NewRedis(addr, "", 0, time.Minute, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	raw := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = raw.Close() })
	require.NoError(t, raw.Set(ctx, redisKeyPrefix+"alice", "not-json{", time.Minute).Err())

	_, ok := c.Get(ctx, "alice")
	require.False(t, ok, "a corrupt entry is as good as a miss")

	// And it gets overwritten by the next Set.
	grants := sampleGrants()
	c.Set(ctx, "alice", grants)
	got, ok := c.Get(ctx, "alice")
	require.True(t, ok)
	require.Equal(t, grants, got)
}

func TestRedisEntriesExpire(t *testing.T) {
	addr := setupRedisContainer(t)
	ctx := context.Background()

	c, err := NewRedis(addr, "", 0, time.Second, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Set(ctx, "alice", sampleGrants())
	_, ok := c.Get(ctx, "alice")
	require.True(t, ok)

	require.Eventually(t, func() bool {
		_, ok := c.Get(ctx, "alice")
		return !ok
	}, 3*time.Second, 100*time.Millisecond, "entries lapse after their TTL")
}

func TestRedisUnreachableDegradesToMiss(t *testing.T) {
	t.Parallel()

	// Nothing listens here; every operation must absorb the failure.
	c, err := NewRedis("127.0.0.1:1", "", 0, time.Minute, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	c.Set(ctx, "alice", sampleGrants())
	_, ok := c.Get(ctx, "alice")
	require.False(t, ok)
	c.Invalidate(ctx, "alice")
}
