// Package analytics aggregates engagement (comments and likes) into daily
// series for the admin dashboard, and derives the anonymous client key used
// to attribute guest engagement.
package analytics

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
)

// SettingsStore persists small key/value settings.
type SettingsStore interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// salt holds the per-installation random salt for client keys, protected by sync.Once.
var salt struct {
	once  sync.Once
	value string
}

// InitSalt loads or generates a persistent salt for client keys.
// Must be called once at startup before any requests are served.
func InitSalt(store SettingsStore) error {
	var initErr error
	salt.once.Do(func() {
		s, err := store.GetSetting("client_key_salt")
		if err != nil {
			initErr = fmt.Errorf("read client key salt: %w", err)
			return
		}
		if s == "" {
			b := make([]byte, 32)
			if _, err := rand.Read(b); err != nil {
				initErr = fmt.Errorf("generate salt: %w", err)
				return
			}
			s = hex.EncodeToString(b)
			if err := store.SetSetting("client_key_salt", s); err != nil {
				initErr = fmt.Errorf("store client key salt: %w", err)
				return
			}
		}
		salt.value = s
	})
	return initErr
}

// ClientKey derives the anonymous client-network key of a visitor from the
// client IP. It is a weak, spoofable signal used for guest likes and
// comment attribution only.
func ClientKey(ip string) string {
	if ip == "" {
		return ""
	}
	h := sha256.New()
	h.Write([]byte(salt.value + ip))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// IsBot checks if the User-Agent is likely a bot/crawler.
func IsBot(ua string) bool {
	ua = strings.ToLower(ua)
	if ua == "" {
		return true
	}
	bots := []string{
		"bot", "crawler", "spider", "crawl", "slurp", "scrape",
		"googlebot", "bingbot", "yandex", "baidu", "duckduckbot",
		"facebookexternalhit", "twitterbot", "linkedinbot",
		"ahrefsbot", "semrushbot", "mj12bot", "dotbot",
		"curl/", "wget/", "python-requests", "go-http-client",
	}
	for _, bot := range bots {
		if strings.Contains(ua, bot) {
			return true
		}
	}
	return false
}
