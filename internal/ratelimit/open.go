package ratelimit

import (
	"context"
	"fmt"

	"validprompt/internal/config"
	"validprompt/internal/logging"
	"validprompt/internal/storage"
)

// OpenSQL connects to the configured SQL database without migrating it.
func OpenSQL(cfg *config.Config) (*storage.DB, error) {
	dbConfig := storage.DefaultDBConfig()
	dbConfig.Driver = cfg.SQLDriver()
	dbConfig.DSN = cfg.Database.URL
	dbConfig.MaxOpenConns = cfg.Database.MaxOpenConns
	dbConfig.MaxIdleConns = cfg.Database.MaxIdleConns
	dbConfig.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
	dbConfig.ConnMaxIdleTime = cfg.Database.ConnMaxIdleTime

	db, err := storage.NewDB(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

// Open builds the ledger selected by cfg.UsageBackend. SQL backends are
// migrated before use.
func Open(ctx context.Context, cfg *config.Config) (Ledger, error) {
	switch cfg.UsageBackend {
	case config.BackendMemory:
		logging.Warningf("Using in-memory usage ledger; counts reset on restart")
		return NewMemoryLedger(), nil

	case config.BackendRedis:
		redisConfig := storage.DefaultRedisConfig()
		redisConfig.Address = cfg.Redis.Address
		redisConfig.Password = cfg.Redis.Password
		redisConfig.DB = cfg.Redis.DB
		redisConfig.PoolSize = cfg.Redis.PoolSize
		redisConfig.MinIdleConns = cfg.Redis.MinIdleConns
		redisConfig.DialTimeout = cfg.Redis.DialTimeout
		redisConfig.ReadTimeout = cfg.Redis.ReadTimeout
		redisConfig.WriteTimeout = cfg.Redis.WriteTimeout

		rc, err := storage.NewRedisClient(redisConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		logging.Infof("Usage ledger: redis at %s", cfg.Redis.Address)
		return NewRedisLedger(rc), nil

	case config.BackendPostgres, config.BackendSQLite:
		db, err := OpenSQL(cfg)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logging.Infof("Usage ledger: %s", db.Driver())
		return NewSQLLedger(db), nil

	default:
		return nil, fmt.Errorf("unknown usage backend %q", cfg.UsageBackend)
	}
}
