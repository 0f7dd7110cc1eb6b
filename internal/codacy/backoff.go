package codacy

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultRetryAfter is used when a 429 response carries no usable Retry-After header
const DefaultRetryAfter = 60 * time.Second

// Waiter blocks between retry attempts
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

// WaiterFunc adapts a function to the Waiter interface
type WaiterFunc func(ctx context.Context, d time.Duration) error

// Wait calls f(ctx, d)
func (f WaiterFunc) Wait(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// timerWaiter sleeps on the wall clock
type timerWaiter struct{}

// NewWaiter creates a waiter that sleeps for the requested duration or until ctx is done
func NewWaiter() Waiter {
	return timerWaiter{}
}

// Wait waits for d to elapse
func (timerWaiter) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// backoffDelay returns 2^attempt seconds
func backoffDelay(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// retryAfter parses a Retry-After header given either as seconds or as an HTTP date
func retryAfter(header string, now time.Time) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return DefaultRetryAfter
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return DefaultRetryAfter
}
