package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Resolver is the lookup capability the cache decorates.
type Resolver interface {
	CountryFromAddr(ctx context.Context, addr string) (string, error)
}

// CachedResolver memoizes country lookups in Redis. Countries for a given
// address change rarely, so a short TTL saves one upstream round trip per
// duplicate submission without affecting what gets stored on a complaint.
//
// Caching changes the observable upstream call count, so it is opt-in:
// deployments that need exact one-call-per-submission behavior leave the
// cache disabled (TTL zero in config).
//
// Redis failures degrade to a plain lookup; they never fail a submission.
type CachedResolver struct {
	next   Resolver
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedResolver decorates next with a Redis-backed lookup cache.
func NewCachedResolver(next Resolver, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedResolver {
	return &CachedResolver{next: next, client: client, ttl: ttl, logger: logger}
}

func cacheKey(addr string) string {
	return "geo:country:" + addr
}

// CountryFromAddr returns the cached country for addr, falling back to the
// wrapped resolver on a miss and storing its result.
func (r *CachedResolver) CountryFromAddr(ctx context.Context, addr string) (string, error) {
	country, err := r.client.Get(ctx, cacheKey(addr)).Result()
	if err == nil {
		return country, nil
	}
	if !errors.Is(err, redis.Nil) {
		r.logger.WarnContext(ctx, "geo cache read failed", "error", err.Error())
	}

	country, err = r.next.CountryFromAddr(ctx, addr)
	if err != nil {
		return "", err
	}

	if err := r.client.Set(ctx, cacheKey(addr), country, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "geo cache write failed", "error", fmt.Sprintf("%v", err))
	}
	return country, nil
}
