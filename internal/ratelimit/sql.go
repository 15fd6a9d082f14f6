package ratelimit

import (
	"context"
	"fmt"

	"validprompt/internal/models"
	"validprompt/internal/storage"
)

// SQLLedger keeps buckets in the usage table (Postgres or SQLite).
type SQLLedger struct {
	db   *storage.DB
	repo *storage.UsageRepository
}

// NewSQLLedger creates a ledger on an open, migrated database.
func NewSQLLedger(db *storage.DB) *SQLLedger {
	return &SQLLedger{
		db:   db,
		repo: db.NewUsageRepository(),
	}
}

func (l *SQLLedger) TryConsume(ctx context.Context, ip, day string, max int) (Decision, error) {
	count, ok, err := l.repo.TryConsume(ctx, ip, day, max)
	if err != nil {
		return Decision{}, fmt.Errorf("sql ledger: %w", err)
	}
	return Decision{Allowed: ok, Count: count}, nil
}

func (l *SQLLedger) Usage(ctx context.Context, ip, day string) (int, error) {
	return l.repo.Count(ctx, ip, day)
}

func (l *SQLLedger) List(ctx context.Context, day string) ([]models.UsageRecord, error) {
	return l.repo.ListByDate(ctx, day)
}

func (l *SQLLedger) Health(ctx context.Context) error {
	return l.db.Health(ctx)
}

func (l *SQLLedger) Close() error {
	return l.db.Close()
}
