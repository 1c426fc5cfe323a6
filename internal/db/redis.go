/**
 * @description
 * Redis connection manager using go-redis.
 * Used for the pipeline run lock and for caching recommendation results.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9
 */

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skincare-catalog/backend/internal/config"
	"github.com/skincare-catalog/backend/internal/logger"
)

// ConnectRedis builds the client from REDIS_URL and verifies it with a PING.
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	opt, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opt.Addr, err)
	}

	logger.Info("Connected to Redis at %s (db=%d pool=%d)", opt.Addr, opt.DB, opt.PoolSize)
	return client, nil
}

// redisOptions parses REDIS_URL. Settings given in the URL win over the config defaults.
func redisOptions(cfg *config.Config) (*redis.Options, error) {
	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	timeout := cfg.Redis.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	for _, d := range []*time.Duration{&opt.DialTimeout, &opt.ReadTimeout, &opt.WriteTimeout, &opt.PoolTimeout} {
		if *d == 0 {
			*d = timeout
		}
	}
	if opt.PoolSize == 0 && cfg.Redis.PoolSize > 0 {
		opt.PoolSize = cfg.Redis.PoolSize
	}
	if opt.MaxRetries == 0 {
		opt.MaxRetries = 2
	}
	return opt, nil
}
