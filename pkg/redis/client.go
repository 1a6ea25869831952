package redis

import (
	"github.com/redis/go-redis/v9"

	"triagedesk/config"
)

// NewRedisClient builds the shared Redis client used for the import dedup
// guard and the canned-message cache.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
