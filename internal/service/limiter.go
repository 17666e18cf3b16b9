package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Limiter admits requests according to a "N/unit" quota such as
// "100/hour". It is a token bucket holding N tokens refilled evenly over
// the unit.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter parses spec. An empty spec disables limiting.
func NewLimiter(spec string) (*Limiter, error) {
	if strings.TrimSpace(spec) == "" {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 0)}, nil
	}
	n, per, err := ParseRate(spec)
	if err != nil {
		return nil, err
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Every(per/time.Duration(n)), n)}, nil
}

// Allow reports whether a request may proceed now, consuming a token if so.
func (l *Limiter) Allow() bool { return l.limiter.Allow() }

// ParseRate parses "N/unit" or "N per unit" where unit is second, minute,
// hour or day (singular, plural or s/m/h/d).
func ParseRate(spec string) (int, time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	var countStr, unit string
	if i := strings.Index(s, "/"); i >= 0 {
		countStr, unit = s[:i], s[i+1:]
	} else if i := strings.Index(s, " per "); i >= 0 {
		countStr, unit = s[:i], s[i+len(" per "):]
	} else {
		return 0, 0, fmt.Errorf("rate limit %q: want N/unit", spec)
	}
	n, err := strconv.Atoi(strings.TrimSpace(countStr))
	if err != nil || n <= 0 {
		return 0, 0, fmt.Errorf("rate limit %q: count must be a positive integer", spec)
	}
	var per time.Duration
	switch strings.TrimSpace(unit) {
	case "s", "second", "seconds":
		per = time.Second
	case "m", "minute", "minutes":
		per = time.Minute
	case "h", "hour", "hours":
		per = time.Hour
	case "d", "day", "days":
		per = 24 * time.Hour
	default:
		return 0, 0, fmt.Errorf("rate limit %q: unknown unit %q", spec, unit)
	}
	return n, per, nil
}
