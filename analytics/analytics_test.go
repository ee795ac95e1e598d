package analytics

import (
	"errors"
	"testing"
)

type memSettings map[string]string

func (m memSettings) GetSetting(key string) (string, error) { return m[key], nil }

func (m memSettings) SetSetting(key, value string) error {
	m[key] = value
	return nil
}

func TestClientKey(t *testing.T) {
	settings := memSettings{}
	if err := InitSalt(settings); err != nil {
		t.Fatal(err)
	}

	a := ClientKey("203.0.113.7")
	if len(a) != 16 {
		t.Errorf("key length = %d, want 16", len(a))
	}
	if a != ClientKey("203.0.113.7") {
		t.Error("key is not stable for the same address")
	}
	if a == ClientKey("203.0.113.8") {
		t.Error("different addresses share a key")
	}
	if ClientKey("") != "" {
		t.Error("empty address should give an empty key")
	}
}

func TestInitSaltRunsOnce(t *testing.T) {
	// salt may already be set by TestClientKey; a failing store must not
	// be consulted again.
	failing := errSettings{}
	_ = InitSalt(memSettings{})
	if err := InitSalt(failing); err != nil {
		t.Errorf("second InitSalt returned %v", err)
	}
}

type errSettings struct{}

func (errSettings) GetSetting(string) (string, error) { return "", errors.New("boom") }
func (errSettings) SetSetting(string, string) error { return errors.New("boom") }

func TestIsBot(t *testing.T) {
	tests := []struct {
		ua       string
		expected bool
	}{
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", true},
		{"Mozilla/5.0 (compatible; bingbot/2.0)", true},
		{"curl/8.4.0", true},
		{"", true},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 Version/17.0 Safari/605.1.15", false},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148", false},
	}
	for _, tt := range tests {
		if got := IsBot(tt.ua); got != tt.expected {
			t.Errorf("IsBot(%q) = %v, want %v", tt.ua, got, tt.expected)
		}
	}
}
