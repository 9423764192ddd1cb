package config

import (
	"os"
	"strconv"
	"time"

	"github.com/finprofile/contact-api/pkg/constants"
	"github.com/finprofile/contact-api/pkg/origin"
	"github.com/finprofile/contact-api/pkg/utils"
)

// ContactConfig carries the intake pipeline's configuration surface: the
// outbound webhook, the origin policy, the per-client admission budget and
// the delivery behavior.
type ContactConfig struct {
	WebhookURL string

	AllowedOrigins  []string
	AllowAllOrigins bool

	RateLimitRequests int
	RateLimitWindow   time.Duration

	NotifyTimeout       time.Duration
	NotifyRetryAttempts int
}

func NewContactConfig() *ContactConfig {
	cfg := &ContactConfig{
		WebhookURL:          utils.GetEnvTrimmed("SLACK_WEBHOOK_URL"),
		AllowedOrigins:      origin.ParseAllowlist(os.Getenv("ALLOWED_ORIGINS")),
		AllowAllOrigins:     getEnvBool("CORS_ALLOW_ALL", false),
		RateLimitRequests:   constants.DefaultContactRateLimitRequests,
		RateLimitWindow:     constants.DefaultContactRateLimitWindow(),
		NotifyTimeout:       8 * time.Second,
		NotifyRetryAttempts: 1, // delivery is not retried unless an operator opts in
	}

	if reqStr := os.Getenv("CONTACT_RATE_LIMIT_REQUESTS"); reqStr != "" {
		if parsed, err := strconv.Atoi(reqStr); err == nil && parsed > 0 {
			cfg.RateLimitRequests = parsed
		}
	}

	if winStr := os.Getenv("CONTACT_RATE_LIMIT_WINDOW"); winStr != "" {
		if parsed, err := time.ParseDuration(winStr); err == nil && parsed > 0 {
			cfg.RateLimitWindow = parsed
		}
	}

	if timeoutStr := os.Getenv("NOTIFY_TIMEOUT"); timeoutStr != "" {
		if parsed, err := time.ParseDuration(timeoutStr); err == nil && parsed > 0 {
			cfg.NotifyTimeout = parsed
		}
	}

	if attemptsStr := os.Getenv("NOTIFY_RETRY_ATTEMPTS"); attemptsStr != "" {
		if parsed, err := strconv.Atoi(attemptsStr); err == nil && parsed > 0 {
			cfg.NotifyRetryAttempts = parsed
		}
	}

	return cfg
}

// OriginPolicy builds the guard applied ahead of the rate limiter.
func (cc *ContactConfig) OriginPolicy() *origin.Policy {
	return origin.NewPolicy(cc.AllowAllOrigins, cc.AllowedOrigins)
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := utils.GetEnvTrimmed(key)
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return b
}
