// Package redisstore implementa los backends efímeros sobre redis:
// el store de contadores del circuit breaker y el backend canónico de
// sesiones.
package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitStore implementa domain.RateLimitStore con INCR + EXPIRE NX
// en un solo pipeline: el TTL queda fijado atómicamente con el
// incremento que crea la key, sin ventana de crash entre ambos.
type RateLimitStore struct {
	client *redis.Client
	prefix string
}

func NewRateLimitStore(client *redis.Client, prefix string) *RateLimitStore {
	if prefix == "" {
		prefix = "rl"
	}
	return &RateLimitStore{client: client, prefix: prefix}
}

func (s *RateLimitStore) key(k string) string {
	return s.prefix + ":" + k
}

func (s *RateLimitStore) IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, s.key(key))
	pipe.ExpireNX(ctx, s.key(key), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *RateLimitStore) ResetPreservingTTL(ctx context.Context, key string) error {
	// SET XX + KEEPTTL: pone el contador en cero solo si la key sigue
	// viva, sin resucitar keys expiradas ni tocar el TTL.
	return s.client.SetXX(ctx, s.key(key), 0, redis.KeepTTL).Err()
}
