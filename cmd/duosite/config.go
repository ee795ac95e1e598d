package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/thxtduo/duosite"
)

// settings mirrors the environment and duosite.yml keys.
type settings struct {
	SiteName           string        `mapstructure:"SITE_NAME"`
	SiteURL            string        `mapstructure:"SITE_URL"`
	SiteDescription    string        `mapstructure:"SITE_DESCRIPTION"`
	Addr               string        `mapstructure:"ADDR"`
	DatabasePath       string        `mapstructure:"DATABASE_PATH"`
	SessionSecret      string        `mapstructure:"SESSION_SECRET"`
	CookieSecure       bool          `mapstructure:"COOKIE_SECURE"`
	AdminEmail         string        `mapstructure:"ADMIN_EMAIL"`
	AdminPassword      string        `mapstructure:"ADMIN_PASSWORD"`
	RedisURL           string        `mapstructure:"REDIS_URL"`
	FeedCacheTTL       time.Duration `mapstructure:"FEED_CACHE_TTL"`
	CommentsVisibility string        `mapstructure:"COMMENTS_VISIBILITY"`
	TimeZone           string        `mapstructure:"TIME_ZONE"`
	MetricsEnabled     bool          `mapstructure:"METRICS_ENABLED"`
	StaticDir          string        `mapstructure:"STATIC_DIR"`
}

var defaults = map[string]any{
	"SITE_NAME":           "ThxtDuo",
	"SITE_URL":            "http://localhost:3000",
	"SITE_DESCRIPTION":    "Singer & Rapper Duo | Hip-Hop & R&B",
	"ADDR":                ":3000",
	"DATABASE_PATH":       "data/duosite.db",
	"SESSION_SECRET":      "",
	"COOKIE_SECURE":       false,
	"ADMIN_EMAIL":         "",
	"ADMIN_PASSWORD":      "",
	"REDIS_URL":           "",
	"FEED_CACHE_TTL":      5 * time.Minute,
	"COMMENTS_VISIBILITY": string(duosite.CommentsAll),
	"TIME_ZONE":           "UTC",
	"METRICS_ENABLED":     true,
	"STATIC_DIR":          "public",
}

// loadSettings reads duosite.yml from dir when present, then lets the
// environment override every key.
func loadSettings(v *viper.Viper, dir string) (settings, error) {
	v.AddConfigPath(dir)
	v.SetConfigName("duosite")
	v.SetConfigType("yml")
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

func (s settings) siteConfig() (duosite.SiteConfig, error) {
	comments, err := duosite.ParseCommentVisibility(s.CommentsVisibility)
	if err != nil {
		return duosite.SiteConfig{}, err
	}
	return duosite.SiteConfig{
		Name:           s.SiteName,
		URL:            s.SiteURL,
		Description:    s.SiteDescription,
		Addr:           s.Addr,
		DatabasePath:   s.DatabasePath,
		SessionSecret:  s.SessionSecret,
		CookieSecure:   s.CookieSecure,
		AdminEmail:     s.AdminEmail,
		AdminPassword:  s.AdminPassword,
		RedisURL:       s.RedisURL,
		FeedCacheTTL:   s.FeedCacheTTL,
		Comments:       comments,
		TimeZone:       s.TimeZone,
		MetricsEnabled: s.MetricsEnabled,
	}, nil
}
