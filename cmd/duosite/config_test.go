package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thxtduo/duosite"
)

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := loadSettings(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":3000", s.Addr)
	assert.Equal(t, "data/duosite.db", s.DatabasePath)
	assert.Equal(t, 5*time.Minute, s.FeedCacheTTL)
	assert.Equal(t, "UTC", s.TimeZone)
	assert.True(t, s.MetricsEnabled)
}

func TestLoadSettingsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yml := "SITE_NAME: FromFile\nFEED_CACHE_TTL: 30s\nCOMMENTS_VISIBILITY: approved\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "duosite.yml"), []byte(yml), 0o644))
	t.Setenv("SITE_NAME", "FromEnv")

	s, err := loadSettings(viper.New(), dir)
	require.NoError(t, err)
	assert.Equal(t, "FromEnv", s.SiteName)
	assert.Equal(t, 30*time.Second, s.FeedCacheTTL)

	cfg, err := s.siteConfig()
	require.NoError(t, err)
	assert.Equal(t, duosite.CommentsApprovedOnly, cfg.Comments)
}

func TestSiteConfigRejectsUnknownVisibility(t *testing.T) {
	s := settings{CommentsVisibility: "everyone"}
	_, err := s.siteConfig()
	assert.Error(t, err)
}
