package duosite

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLoader returns a feed with one post titled after the call number.
func countingLoader(calls *atomic.Int32) FeedLoader {
	return func(context.Context) (Feed, error) {
		n := calls.Add(1)
		return Feed{Posts: []PostRow{{BlogPost: BlogPost{ID: "p", Title: string(rune('A' + n - 1))}}}}, nil
	}
}

func TestMemoryFeedCache(t *testing.T) {
	var calls atomic.Int32
	c := NewMemoryFeedCache(countingLoader(&calls), time.Minute)
	ctx := context.Background()

	f1, err := c.Get(ctx)
	require.NoError(t, err)
	f2, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second read is served from cache")
	assert.Equal(t, f1, f2)

	require.NoError(t, c.Invalidate(ctx))
	f3, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "B", f3.Posts[0].Title)
}

func TestMemoryFeedCacheExpires(t *testing.T) {
	var calls atomic.Int32
	c := NewMemoryFeedCache(countingLoader(&calls), time.Nanosecond)
	ctx := context.Background()

	c.Get(ctx)
	time.Sleep(time.Millisecond)
	c.Get(ctx)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemoryFeedCacheLoadError(t *testing.T) {
	boom := errors.New("db down")
	c := NewMemoryFeedCache(func(context.Context) (Feed, error) { return Feed{}, boom }, time.Minute)
	_, err := c.Get(context.Background())
	assert.ErrorIs(t, err, boom)
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisFeedCache(t *testing.T) {
	mr, client := newMiniredis(t)
	var calls atomic.Int32
	c := NewRedisFeedCache(client, countingLoader(&calls), time.Minute, nil)
	ctx := context.Background()

	f1, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists(feedCacheKey))
	assert.Equal(t, time.Minute, mr.TTL(feedCacheKey))

	f2, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, f1.Posts[0].Title, f2.Posts[0].Title)

	require.NoError(t, c.Invalidate(ctx))
	assert.False(t, mr.Exists(feedCacheKey))
	f3, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", f3.Posts[0].Title)
}

func TestRedisFeedCacheCorruptEntry(t *testing.T) {
	mr, client := newMiniredis(t)
	require.NoError(t, mr.Set(feedCacheKey, "{not json"))

	var calls atomic.Int32
	var reported []error
	c := NewRedisFeedCache(client, countingLoader(&calls), time.Minute, func(err error) { reported = append(reported, err) })

	feed, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", feed.Posts[0].Title)
	require.Len(t, reported, 1)
	assert.Contains(t, reported[0].Error(), "decode cached feed")
}

func TestRedisFeedCacheFallsBackWhenDown(t *testing.T) {
	mr, client := newMiniredis(t)
	mr.Close()

	var calls atomic.Int32
	var reported int
	c := NewRedisFeedCache(client, countingLoader(&calls), time.Minute, func(error) { reported++ })

	feed, err := c.Get(context.Background())
	require.NoError(t, err, "the store still serves the feed")
	assert.Len(t, feed.Posts, 1)
	assert.Equal(t, 2, reported, "both the read and the write failure are reported")
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestStoreFeedLoader(t *testing.T) {
	s := setupTestStore(t)
	admin := newTestAdmin(t, s, "admin@example.com")
	newTestPost(t, s, admin, "Live", true)
	newTestPost(t, s, admin, "Draft", false)
	newTestQuote(t, s, admin)

	feed, err := StoreFeedLoader(s)(context.Background())
	require.NoError(t, err)
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, "Live", feed.Posts[0].Title)
	assert.Len(t, feed.Quotes, 1)
}
