package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache keeps fetched caption entries in Redis so repeated requests for
// the same video do not hit YouTube again.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache connects to redisURL and verifies the connection.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("cache: redis unreachable: %w", err)
	}
	return &RedisCache{rdb: rdb, ttl: ttl, logger: slog.Default()}, nil
}

func cacheKey(videoID string, langs []string) string {
	return "captions:" + videoID + ":" + strings.Join(langs, ",")
}

func (c *RedisCache) Get(ctx context.Context, videoID string, langs []string) ([]Entry, bool) {
	data, err := c.rdb.Get(ctx, cacheKey(videoID, langs)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache: get failed", slog.Any("error", err))
		}
		return nil, false
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil || len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

func (c *RedisCache) Set(ctx context.Context, videoID string, langs []string, entries []Entry) {
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(videoID, langs), data, c.ttl).Err(); err != nil {
		c.logger.Debug("cache: set failed", slog.Any("error", err))
	}
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
