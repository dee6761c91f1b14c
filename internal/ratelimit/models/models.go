package models

import "time"

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is in seconds and only set when not allowed.
	RetryAfter int
}

// Class names a group of endpoints sharing one quota.
type Class string

const ClassResolve Class = "resolve"
