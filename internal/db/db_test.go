package db

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/skincare-catalog/backend/internal/config"
	"github.com/skincare-catalog/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormLogger "gorm.io/gorm/logger"
)

func init() {
	logger.SetNop()
}

func TestPoolLimits(t *testing.T) {
	cases := []struct {
		name     string
		cfg      config.Config
		wantOpen int
		wantIdle int
	}{
		{"derived from workers", config.Config{ETL: config.ETLConfig{Workers: 4}}, 10, 5},
		{"explicit override", config.Config{DB: config.DBConfig{MaxOpenConns: 3}, ETL: config.ETLConfig{Workers: 16}}, 3, 1},
		{"single connection keeps one idle", config.Config{DB: config.DBConfig{MaxOpenConns: 1}}, 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			open, idle := poolLimits(&tc.cfg)
			assert.Equal(t, tc.wantOpen, open)
			assert.Equal(t, tc.wantIdle, idle)
		})
	}
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, gormLogger.Warn, gormLogLevel("development"))
	assert.Equal(t, gormLogger.Silent, gormLogLevel("test"))
	assert.Equal(t, gormLogger.Error, gormLogLevel("production"))
}

func TestRedisOptions(t *testing.T) {
	cfg := &config.Config{Redis: config.RedisConfig{
		URL:      "redis://localhost:6379/2",
		PoolSize: 7,
		Timeout:  3 * time.Second,
	}}
	opt, err := redisOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opt.Addr)
	assert.Equal(t, 2, opt.DB)
	assert.Equal(t, 7, opt.PoolSize)
	assert.Equal(t, 3*time.Second, opt.ReadTimeout)
	assert.Equal(t, 3*time.Second, opt.DialTimeout)

	cfg.Redis.URL = "redis://localhost:6379/0?pool_size=20&read_timeout=1s"
	opt, err = redisOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, 20, opt.PoolSize, "URL settings win")
	assert.Equal(t, time.Second, opt.ReadTimeout)

	cfg.Redis.URL = "http://not-redis"
	_, err = redisOptions(cfg)
	require.Error(t, err)
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{Redis: config.RedisConfig{URL: "redis://" + mr.Addr(), PoolSize: 2, Timeout: time.Second}}

	client, err := ConnectRedis(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	mr.Close()
	_, err = ConnectRedis(context.Background(), cfg)
	require.Error(t, err)
}
