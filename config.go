package duosite

import (
	"fmt"
	"time"
)

// CommentVisibility decides which comments the public pages show.
type CommentVisibility string

const (
	// CommentsAll shows every comment regardless of moderation state.
	CommentsAll CommentVisibility = "all"
	// CommentsApprovedOnly hides pending and rejected comments.
	CommentsApprovedOnly CommentVisibility = "approved"
)

// ParseCommentVisibility validates a visibility setting; "" means CommentsAll.
func ParseCommentVisibility(s string) (CommentVisibility, error) {
	switch CommentVisibility(s) {
	case "", CommentsAll:
		return CommentsAll, nil
	case CommentsApprovedOnly:
		return CommentsApprovedOnly, nil
	}
	return "", fmt.Errorf("duosite: unknown comment visibility %q (want %q or %q)", s, CommentsAll, CommentsApprovedOnly)
}

// SiteConfig holds all configuration for a duosite deployment.
type SiteConfig struct {
	Name        string // Site name (default "Duo")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/duosite.db")

	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	AdminEmail    string // Bootstrap admin account, optional
	AdminPassword string

	RedisURL     string        // Shared feed cache; in-memory when empty
	FeedCacheTTL time.Duration // Feed cache TTL (default 5min)

	Comments CommentVisibility // Public comment visibility (default CommentsAll)
	TimeZone string            // IANA zone for analytics day buckets (default "UTC")

	MetricsEnabled bool // Serve /metrics and record request metrics
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Duo"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/duosite.db"
	}
	if c.FeedCacheTTL == 0 {
		c.FeedCacheTTL = 5 * time.Minute
	}
	if c.Comments == "" {
		c.Comments = CommentsAll
	}
	if c.TimeZone == "" {
		c.TimeZone = "UTC"
	}
}

func (c SiteConfig) location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("duosite: time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for static assets and uploads (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithStore makes the App use an already opened store instead of opening
// Config.DatabasePath.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithFeedCache replaces the feed cache chosen from the configuration.
func WithFeedCache(fc FeedCache) Option {
	return func(a *App) {
		a.Cache = fc
	}
}
