package graph

import (
	"strings"
	"time"
)

// BackoffStrategy selects how retry delays grow between attempts.
type BackoffStrategy int

const (
	// FixedBackoff waits BaseDelay between every attempt.
	FixedBackoff BackoffStrategy = iota
	// LinearBackoff waits BaseDelay, 2*BaseDelay, 3*BaseDelay, ...
	LinearBackoff
	// ExponentialBackoff waits BaseDelay, 2*BaseDelay, 4*BaseDelay, ...
	ExponentialBackoff
)

// RetryPolicy defines retry behavior for failed nodes.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BackoffStrategy selects the delay growth between attempts.
	BackoffStrategy BackoffStrategy

	// BaseDelay is the delay unit for the backoff strategy. Zero means
	// one second.
	BaseDelay time.Duration

	// RetryableErrors lists substrings of error messages that should
	// trigger a retry. An empty list retries nothing.
	RetryableErrors []string
}

// DefaultRetryPolicy retries transient failures a few times with
// exponential backoff.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:      3,
		BackoffStrategy: ExponentialBackoff,
		BaseDelay:       time.Second,
		RetryableErrors: []string{"timeout", "temporary", "rate limit", "429", "503"},
	}
}

func (p *RetryPolicy) shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range p.RetryableErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func (p *RetryPolicy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	switch p.BackoffStrategy {
	case LinearBackoff:
		return base * time.Duration(attempt+1)
	case ExponentialBackoff:
		return base * time.Duration(1<<attempt)
	default:
		return base
	}
}
