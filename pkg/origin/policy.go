package origin

import "strings"

// Policy decides whether a cross-origin caller may reach the API.
//
// Permissiveness is an explicit flag: an empty allowlist with AllowAll=false
// denies every cross-origin request rather than silently allowing all of
// them. Requests without an Origin header (server-to-server, same-origin)
// are always allowed.
type Policy struct {
	AllowAll  bool
	Allowlist []string
}

// NewPolicy trims and drops empty allowlist entries.
func NewPolicy(allowAll bool, allowlist []string) *Policy {
	cleaned := make([]string, 0, len(allowlist))
	for _, o := range allowlist {
		o = strings.TrimSpace(o)
		if o != "" {
			cleaned = append(cleaned, o)
		}
	}
	return &Policy{AllowAll: allowAll, Allowlist: cleaned}
}

// ParseAllowlist splits a comma-separated origin list from configuration.
func ParseAllowlist(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// Allows reports whether a request with the given Origin header may proceed.
func (p *Policy) Allows(origin string) bool {
	if origin == "" {
		return true
	}
	if p.AllowAll {
		return true
	}
	for _, allowed := range p.Allowlist {
		if allowed == origin {
			return true
		}
	}
	return false
}

// DefaultOrigin is the value reflected in preflight responses when the
// request's Origin is absent or not allowlisted.
func (p *Policy) DefaultOrigin() string {
	if len(p.Allowlist) > 0 {
		return p.Allowlist[0]
	}
	if p.AllowAll {
		return "*"
	}
	return ""
}
