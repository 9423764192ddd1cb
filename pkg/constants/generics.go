package constants

import "time"

// RFC 3339 date-time format string.
// Use this format for all date-time serialization and communication with external systems.
const RFC3339DateTimeFormat = "2006-01-02T15:04:05Z07:00"

// Router-wide default admission layer. Generous on purpose: the contact
// endpoint carries its own, much tighter budget.
const (
	// DefaultRateLimitRequests is the default number of requests allowed per time window
	DefaultRateLimitRequests = 100
	// DefaultRateLimitWindowMinutes is the default time window for rate limiting
	DefaultRateLimitWindowMinutes = 1
)

// Contact intake admission budget: 5 submissions per rolling minute per
// client identifier.
const (
	DefaultContactRateLimitRequests = 5
)

// DefaultRateLimitWindow returns the default rate limit window duration
func DefaultRateLimitWindow() time.Duration {
	return time.Duration(DefaultRateLimitWindowMinutes) * time.Minute
}

// DefaultContactRateLimitWindow returns the contact intake window duration
func DefaultContactRateLimitWindow() time.Duration {
	return time.Minute
}

// MaxSanitizedFieldLength caps every free-text field forwarded downstream.
const MaxSanitizedFieldLength = 500
