package duosite

import (
	"context"
	"sync"
	"time"
)

// Feed is the public listing shown on the home page, RSS and sitemap: all
// published posts and all quotes with their live counts.
type Feed struct {
	Posts  []PostRow  `json:"posts"`
	Quotes []QuoteRow `json:"quotes"`
}

// FeedLoader builds a fresh Feed from the store.
type FeedLoader func(ctx context.Context) (Feed, error)

// FeedCache serves the public Feed and drops it when content or engagement
// changes.
type FeedCache interface {
	Get(ctx context.Context) (Feed, error)
	Invalidate(ctx context.Context) error
}

// StoreFeedLoader returns a FeedLoader reading from s.
func StoreFeedLoader(s *Store) FeedLoader {
	return func(ctx context.Context) (Feed, error) {
		posts, err := s.ListPostRows(ctx, "", true)
		if err != nil {
			return Feed{}, err
		}
		quotes, err := s.ListQuoteRows(ctx, "")
		if err != nil {
			return Feed{}, err
		}
		return Feed{Posts: posts, Quotes: quotes}, nil
	}
}

// MemoryFeedCache is an in-process cache of the Feed with TTL.
type MemoryFeedCache struct {
	mu      sync.RWMutex
	feed    *Feed
	fetched time.Time
	ttl     time.Duration
	load    FeedLoader
}

// NewMemoryFeedCache creates a MemoryFeedCache backed by load.
func NewMemoryFeedCache(load FeedLoader, ttl time.Duration) *MemoryFeedCache {
	return &MemoryFeedCache{load: load, ttl: ttl}
}

func (c *MemoryFeedCache) valid() bool {
	return c.feed != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *MemoryFeedCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.feed = nil
	c.mu.Unlock()
	return nil
}

// Get returns the cached feed after ensuring it is fresh. It tries a read
// lock first; only takes a write lock if a reload is needed.
func (c *MemoryFeedCache) Get(ctx context.Context) (Feed, error) {
	c.mu.RLock()
	if c.valid() {
		feed := *c.feed
		c.mu.RUnlock()
		return feed, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return *c.feed, nil
	}
	feed, err := c.load(ctx)
	if err != nil {
		return Feed{}, err
	}
	c.feed = &feed
	c.fetched = time.Now()
	return feed, nil
}
