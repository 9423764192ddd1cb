package config

import (
	"testing"
	"time"
)

func TestNewContactConfigDefaults(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("CORS_ALLOW_ALL", "")
	t.Setenv("CONTACT_RATE_LIMIT_REQUESTS", "")
	t.Setenv("CONTACT_RATE_LIMIT_WINDOW", "")
	t.Setenv("NOTIFY_TIMEOUT", "")
	t.Setenv("NOTIFY_RETRY_ATTEMPTS", "")

	cfg := NewContactConfig()

	if cfg.RateLimitRequests != 5 {
		t.Fatalf("expected default rate limit of 5, got %d", cfg.RateLimitRequests)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Fatalf("expected default window of 1m, got %s", cfg.RateLimitWindow)
	}
	if cfg.NotifyTimeout != 8*time.Second {
		t.Fatalf("expected default notify timeout of 8s, got %s", cfg.NotifyTimeout)
	}
	if cfg.NotifyRetryAttempts != 1 {
		t.Fatalf("expected single delivery attempt by default, got %d", cfg.NotifyRetryAttempts)
	}
	if cfg.AllowAllOrigins {
		t.Fatal("expected allow-all to be off by default")
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Fatalf("expected empty allowlist, got %v", cfg.AllowedOrigins)
	}
}

func TestNewContactConfigOverrides(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/T000/B000/XXX")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("CORS_ALLOW_ALL", "true")
	t.Setenv("CONTACT_RATE_LIMIT_REQUESTS", "9")
	t.Setenv("CONTACT_RATE_LIMIT_WINDOW", "30s")
	t.Setenv("NOTIFY_TIMEOUT", "3s")
	t.Setenv("NOTIFY_RETRY_ATTEMPTS", "4")

	cfg := NewContactConfig()

	if cfg.WebhookURL == "" {
		t.Fatal("expected webhook URL to be set")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://a.example.com" {
		t.Fatalf("unexpected allowlist: %v", cfg.AllowedOrigins)
	}
	if !cfg.AllowAllOrigins {
		t.Fatal("expected allow-all to be enabled")
	}
	if cfg.RateLimitRequests != 9 {
		t.Fatalf("expected rate limit of 9, got %d", cfg.RateLimitRequests)
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Fatalf("expected 30s window, got %s", cfg.RateLimitWindow)
	}
	if cfg.NotifyTimeout != 3*time.Second {
		t.Fatalf("expected 3s notify timeout, got %s", cfg.NotifyTimeout)
	}
	if cfg.NotifyRetryAttempts != 4 {
		t.Fatalf("expected 4 delivery attempts, got %d", cfg.NotifyRetryAttempts)
	}
}

func TestContactConfigOriginPolicy(t *testing.T) {
	cfg := &ContactConfig{
		AllowedOrigins: []string{"https://a.example.com"},
	}

	policy := cfg.OriginPolicy()

	if !policy.Allows("https://a.example.com") {
		t.Fatal("expected allowlisted origin to pass")
	}
	if policy.Allows("https://b.example.com") {
		t.Fatal("expected unlisted origin to be rejected")
	}
}
