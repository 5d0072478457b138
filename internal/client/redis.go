package client

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/TruongDucHungSon/ecommerce-api/internal/config"
)

// InitRedisClient connects the statistics cache. A dead redis is not fatal:
// the caller gets nil and the cache layer degrades to pass-through.
func InitRedisClient(cfg config.Redis) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnf("redis unavailable, statistics cache disabled: %v", err)
		return nil
	}

	return rdb
}
