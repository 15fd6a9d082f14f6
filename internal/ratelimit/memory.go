package ratelimit

import (
	"context"
	"sort"
	"sync"

	"validprompt/internal/models"
)

type bucketKey struct {
	ip  string
	day string
}

// MemoryLedger keeps buckets in process memory. Counts are lost on restart;
// meant for local development and tests.
type MemoryLedger struct {
	mu      sync.Mutex
	buckets map[bucketKey]int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{buckets: make(map[bucketKey]int)}
}

func (l *MemoryLedger) TryConsume(ctx context.Context, ip, day string, max int) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := bucketKey{ip: ip, day: day}
	count := l.buckets[key]
	if count >= max {
		return Decision{Allowed: false, Count: count}, nil
	}

	count++
	l.buckets[key] = count
	return Decision{Allowed: true, Count: count}, nil
}

func (l *MemoryLedger) Usage(ctx context.Context, ip, day string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buckets[bucketKey{ip: ip, day: day}], nil
}

func (l *MemoryLedger) List(ctx context.Context, day string) ([]models.UsageRecord, error) {
	l.mu.Lock()
	records := []models.UsageRecord{}
	for key, count := range l.buckets {
		if key.day == day {
			records = append(records, models.UsageRecord{IP: key.ip, Date: key.day, Count: count})
		}
	}
	l.mu.Unlock()

	sortRecords(records)
	return records, nil
}

func (l *MemoryLedger) Health(ctx context.Context) error {
	return nil
}

func (l *MemoryLedger) Close() error {
	return nil
}

func sortRecords(records []models.UsageRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Count != records[j].Count {
			return records[i].Count > records[j].Count
		}
		return records[i].IP < records[j].IP
	})
}
