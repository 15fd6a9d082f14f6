package ratelimit

import (
	"context"
	"time"

	"validprompt/internal/models"
)

// DayLayout is the calendar-day format used for quota buckets.
const DayLayout = "2006-01-02"

// Decision is the outcome of a TryConsume call.
type Decision struct {
	Allowed bool
	// Count is the bucket count after the call. On refusal it is the
	// unchanged stored count.
	Count int
}

// Ledger tracks per (client IP, UTC day) request counts and enforces the
// daily quota. TryConsume must be atomic: concurrent calls for the same
// bucket never accept more than max requests in total.
type Ledger interface {
	// TryConsume accepts the request and increments the bucket when its
	// count is below max; otherwise it refuses without writing.
	TryConsume(ctx context.Context, ip, day string, max int) (Decision, error)

	// Usage returns the current count of a bucket, 0 if it does not exist.
	Usage(ctx context.Context, ip, day string) (int, error)

	// List returns all buckets of a day, busiest first.
	List(ctx context.Context, day string) ([]models.UsageRecord, error)

	// Health reports whether the backing store is reachable.
	Health(ctx context.Context) error

	// Close releases the backing store.
	Close() error
}

// Day returns the UTC calendar day of t.
func Day(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// ParseDay validates a YYYY-MM-DD day string.
func ParseDay(s string) (string, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return "", err
	}
	return t.Format(DayLayout), nil
}
