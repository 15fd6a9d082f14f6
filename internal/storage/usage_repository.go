package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"validprompt/internal/models"
)

const usageSchema = `
CREATE TABLE IF NOT EXISTS usage (
	ip    TEXT    NOT NULL,
	date  TEXT    NOT NULL,
	count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (ip, date)
)`

// consumeQuery creates the bucket with count = 1 or increments it, but only
// while the stored count is below the limit. No returned row means the
// bucket is exhausted and nothing was written.
const consumeQuery = `
INSERT INTO usage (ip, date, count) VALUES (?, ?, 1)
ON CONFLICT (ip, date) DO UPDATE SET count = usage.count + 1
WHERE usage.count < ?
RETURNING count`

// UsageRepository handles usage record database operations
type UsageRepository struct {
	db *DB
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// TryConsume atomically takes one request from the (ip, date) bucket.
// It returns the count after the call and whether the request was accepted.
func (r *UsageRepository) TryConsume(ctx context.Context, ip, date string, limit int) (int, bool, error) {
	if limit <= 0 {
		count, err := r.Count(ctx, ip, date)
		return count, false, err
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var count int
	err := r.db.conn.QueryRowxContext(ctx, r.db.conn.Rebind(consumeQuery), ip, date, limit).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		current, err := r.Count(ctx, ip, date)
		if err != nil {
			return 0, false, err
		}
		return current, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to consume usage: %w", err)
	}

	return count, true, nil
}

// Get retrieves the usage record for an (ip, date) pair
func (r *UsageRepository) Get(ctx context.Context, ip, date string) (*models.UsageRecord, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	query := r.db.conn.Rebind(`SELECT ip, date, count FROM usage WHERE ip = ? AND date = ?`)

	var record models.UsageRecord
	err := r.db.conn.GetContext(ctx, &record, query, ip, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUsageRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get usage record: %w", err)
	}

	return &record, nil
}

// Count returns the stored count, 0 when the bucket does not exist yet
func (r *UsageRepository) Count(ctx context.Context, ip, date string) (int, error) {
	record, err := r.Get(ctx, ip, date)
	if errors.Is(err, ErrUsageRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return record.Count, nil
}

// ListByDate retrieves all buckets of a day, busiest first
func (r *UsageRepository) ListByDate(ctx context.Context, date string) ([]models.UsageRecord, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	query := r.db.conn.Rebind(`
		SELECT ip, date, count
		FROM usage
		WHERE date = ?
		ORDER BY count DESC, ip ASC
	`)

	records := []models.UsageRecord{}
	if err := r.db.conn.SelectContext(ctx, &records, query, date); err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}

	return records, nil
}
