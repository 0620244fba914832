package ratelimit

import "fmt"

// Policy is a limit over a fixed window
type Policy struct {
	Limit         int64
	WindowSeconds int
}

// DefaultGlobalPolicy applies to every request across all users
var DefaultGlobalPolicy = Policy{
	Limit:         600,
	WindowSeconds: 60,
}

// DefaultUserPolicy applies per authenticated user
var DefaultUserPolicy = Policy{
	Limit:         60,
	WindowSeconds: 60,
}

// NewPolicy returns a policy, falling back to def for non-positive values
func NewPolicy(limit int64, windowSeconds int, def Policy) Policy {
	p := def
	if limit > 0 {
		p.Limit = limit
	}
	if windowSeconds > 0 {
		p.WindowSeconds = windowSeconds
	}
	return p
}

// Window renders the window for API responses
func (p Policy) Window() string {
	return fmt.Sprintf("%d seconds", p.WindowSeconds)
}

// GlobalKey is the redis counter key for the global limit
func GlobalKey() string {
	return "rate_limit:global"
}

// UserKey is the redis counter key for a user limit
func UserKey(userID string) string {
	return fmt.Sprintf("rate_limit:user:%s", userID)
}
