package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"validprompt/internal/models"
	"validprompt/internal/storage"
)

// bucketTTL keeps a bucket around long enough to cover any timezone skew
// between the day it was created for and the current UTC day.
const bucketTTL = 48 * time.Hour

// consumeScript increments KEYS[1] only while it is below ARGV[1].
// Returns {allowed, count}.
var consumeScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local max = tonumber(ARGV[1])
if current >= max then
	return {0, current}
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[2])
end
return {1, current}
`)

// RedisLedger keeps buckets as Redis counters keyed usage:<day>:<ip>.
type RedisLedger struct {
	rc     *storage.RedisClient
	client *redis.Client
}

func NewRedisLedger(rc *storage.RedisClient) *RedisLedger {
	return &RedisLedger{rc: rc, client: rc.Client()}
}

func bucketKeyFor(ip, day string) string {
	return fmt.Sprintf("usage:%s:%s", day, ip)
}

func (l *RedisLedger) TryConsume(ctx context.Context, ip, day string, max int) (Decision, error) {
	res, err := consumeScript.Run(ctx, l.client,
		[]string{bucketKeyFor(ip, day)},
		max, int(bucketTTL.Seconds()),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis ledger: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("redis ledger: unexpected script reply %v", res)
	}
	return Decision{Allowed: res[0] == 1, Count: int(res[1])}, nil
}

func (l *RedisLedger) Usage(ctx context.Context, ip, day string) (int, error) {
	count, err := l.client.Get(ctx, bucketKeyFor(ip, day)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis ledger: %w", err)
	}
	return count, nil
}

func (l *RedisLedger) List(ctx context.Context, day string) ([]models.UsageRecord, error) {
	prefix := fmt.Sprintf("usage:%s:", day)
	records := []models.UsageRecord{}

	iter := l.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		count, err := l.client.Get(ctx, key).Int()
		if errors.Is(err, redis.Nil) {
			// expired between SCAN and GET
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis ledger: %w", err)
		}
		records = append(records, models.UsageRecord{
			IP:    strings.TrimPrefix(key, prefix),
			Date:  day,
			Count: count,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis ledger: %w", err)
	}

	sortRecords(records)
	return records, nil
}

func (l *RedisLedger) Health(ctx context.Context) error {
	return l.rc.Health(ctx)
}

func (l *RedisLedger) Close() error {
	return l.rc.Close()
}
