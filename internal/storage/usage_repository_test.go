package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLiteDB(t *testing.T) *DB {
	t.Helper()

	cfg := DefaultDBConfig()
	cfg.Driver = "sqlite"
	cfg.DSN = filepath.Join(t.TempDir(), "usage.db")

	db, err := NewDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

// setupPostgresDB connects to DATABASE_URL and skips when it is not set
func setupPostgresDB(t *testing.T) *DB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg := DefaultDBConfig()
	cfg.DSN = dsn
	cfg.MaxOpenConns = 5

	db, err := NewDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestNewDB_UnsupportedDriver(t *testing.T) {
	_, err := NewDB(DBConfig{Driver: "mysql", DSN: "x"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestDB_Health(t *testing.T) {
	db := setupSQLiteDB(t)
	assert.NoError(t, db.Health(context.Background()))
	assert.Equal(t, "sqlite", db.Driver())
	assert.Equal(t, 1, db.GetStats().MaxOpenConnections)
}

func TestDB_MigrateIsIdempotent(t *testing.T) {
	db := setupSQLiteDB(t)
	assert.NoError(t, db.Migrate(context.Background()))
}

func testTryConsume(t *testing.T, db *DB) {
	repo := db.NewUsageRepository()
	ctx := context.Background()
	ip := "203.0.113.7"
	day := "2025-06-01"

	_, err := db.Conn().ExecContext(ctx, db.Conn().Rebind("DELETE FROM usage WHERE ip = ?"), ip)
	require.NoError(t, err)

	// Fresh bucket starts at 1
	count, ok, err := repo.TryConsume(ctx, ip, day, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, count)

	count, ok, err = repo.TryConsume(ctx, ip, day, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, count)

	count, ok, err = repo.TryConsume(ctx, ip, day, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, count)

	// Exhausted: refused and unchanged
	count, ok, err = repo.TryConsume(ctx, ip, day, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, count)

	stored, err := repo.Count(ctx, ip, day)
	require.NoError(t, err)
	assert.Equal(t, 3, stored)

	// Next day is a fresh bucket
	count, ok, err = repo.TryConsume(ctx, ip, "2025-06-02", 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, count)
}

func TestUsageRepository_TryConsume_SQLite(t *testing.T) {
	testTryConsume(t, setupSQLiteDB(t))
}

func TestUsageRepository_TryConsume_Postgres(t *testing.T) {
	testTryConsume(t, setupPostgresDB(t))
}

func TestUsageRepository_ZeroLimitNeverWrites(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := db.NewUsageRepository()
	ctx := context.Background()

	count, ok, err := repo.TryConsume(ctx, "1.2.3.4", "2025-06-01", 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, count)

	_, err = repo.Get(ctx, "1.2.3.4", "2025-06-01")
	assert.ErrorIs(t, err, ErrUsageRecordNotFound)
}

func TestUsageRepository_ConcurrentConsumeNeverOvershoots(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := db.NewUsageRepository()
	ctx := context.Background()

	const limit = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := repo.TryConsume(ctx, "9.9.9.9", "2025-06-01", limit)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, accepted)
	count, err := repo.Count(ctx, "9.9.9.9", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, limit, count)
}

func TestUsageRepository_ListByDate(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := db.NewUsageRepository()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := repo.TryConsume(ctx, "2.2.2.2", "2025-06-01", 10)
		require.NoError(t, err)
	}
	_, _, err := repo.TryConsume(ctx, "1.1.1.1", "2025-06-01", 10)
	require.NoError(t, err)
	_, _, err = repo.TryConsume(ctx, "3.3.3.3", "2025-06-01", 10)
	require.NoError(t, err)
	_, _, err = repo.TryConsume(ctx, "1.1.1.1", "2025-06-02", 10)
	require.NoError(t, err)

	records, err := repo.ListByDate(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "2.2.2.2", records[0].IP)
	assert.Equal(t, 3, records[0].Count)
	assert.Equal(t, "1.1.1.1", records[1].IP)
	assert.Equal(t, "3.3.3.3", records[2].IP)

	empty, err := repo.ListByDate(ctx, "2030-01-01")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
