package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/techfolio/authd/internal/auth/domain"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "authd:grants:"

// Redis is a PermissionCache backed by a shared redis instance, for
// deployments running several authd replicas behind one principal store.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(addr, password string, db int, ttl time.Duration, logger *slog.Logger) (*Redis, error) {
	if addr == "" {
		return nil, errors.New("cache: redis addr is required")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Redis{client: client, ttl: ttl, logger: logger}, nil
}

func (r *Redis) Get(ctx context.Context, username string) (domain.ResolvedGrants, bool) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+username).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("permission cache read failed", "error", err)
		}
		return domain.ResolvedGrants{}, false
	}

	var grants domain.ResolvedGrants
	if err := json.Unmarshal(raw, &grants); err != nil {
		// A corrupt entry is as good as a miss; it will be overwritten.
		r.logger.Warn("permission cache entry corrupt", "username", username, "error", err)
		return domain.ResolvedGrants{}, false
	}
	return grants, true
}

func (r *Redis) Set(ctx context.Context, username string, grants domain.ResolvedGrants) {
	raw, err := json.Marshal(grants)
	if err != nil {
		r.logger.Warn("permission cache encode failed", "error", err)
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+username, raw, r.ttl).Err(); err != nil {
		r.logger.Warn("permission cache write failed", "error", err)
	}
}

func (r *Redis) Invalidate(ctx context.Context, username string) {
	if err := r.client.Del(ctx, redisKeyPrefix+username).Err(); err != nil {
		r.logger.Warn("permission cache invalidate failed", "error", err)
	}
}

// Close releases the underlying client connection pool.
func (r *Redis) Close() error { return r.client.Close() }
