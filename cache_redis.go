package duosite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const feedCacheKey = "duosite:feed"

// RedisFeedCache keeps the Feed in Redis so several processes can share one
// cached copy. Redis failures fall back to loading from the store.
type RedisFeedCache struct {
	client *redis.Client
	ttl    time.Duration
	load   FeedLoader
	onErr  func(error)
}

// NewRedisFeedCache creates a RedisFeedCache. onErr receives Redis errors
// that were recovered from; it may be nil.
func NewRedisFeedCache(client *redis.Client, load FeedLoader, ttl time.Duration, onErr func(error)) *RedisFeedCache {
	if onErr == nil {
		onErr = func(error) {}
	}
	return &RedisFeedCache{client: client, ttl: ttl, load: load, onErr: onErr}
}

// NewRedisClient parses a redis:// URL and checks the server is reachable.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Get returns the cached feed, loading and storing it on a miss.
func (c *RedisFeedCache) Get(ctx context.Context) (Feed, error) {
	raw, err := c.client.Get(ctx, feedCacheKey).Bytes()
	switch {
	case err == nil:
		var feed Feed
		decodeErr := json.Unmarshal(raw, &feed)
		if decodeErr == nil {
			return feed, nil
		}
		c.onErr(fmt.Errorf("decode cached feed: %w", decodeErr))
	case !errors.Is(err, redis.Nil):
		c.onErr(fmt.Errorf("read cached feed: %w", err))
	}

	feed, err := c.load(ctx)
	if err != nil {
		return Feed{}, err
	}
	raw, err = json.Marshal(feed)
	if err != nil {
		return feed, nil
	}
	if err := c.client.Set(ctx, feedCacheKey, raw, c.ttl).Err(); err != nil {
		c.onErr(fmt.Errorf("write cached feed: %w", err))
	}
	return feed, nil
}

// Invalidate deletes the cached feed.
func (c *RedisFeedCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, feedCacheKey).Err()
}
