package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient implementa Client sobre un *redis.Client compartido.
type redisClient struct {
	client *redis.Client
	prefix string
}

// NewRedis crea un cache sobre una conexión redis existente.
func NewRedis(client *redis.Client, prefix string) Client {
	return &redisClient{client: client, prefix: prefix}
}

func (c *redisClient) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *redisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *redisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

func (c *redisClient) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

func (c *redisClient) Close() error {
	// La conexión es compartida con otros componentes; la cierra quien
	// la abrió.
	return nil
}
