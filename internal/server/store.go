package server

import (
	"fmt"

	"github.com/randalmurphal/miniflow/pkg/miniflow/runstore"
)

// OpenStore creates the run store selected by cfg.
func OpenStore(cfg StoreConfig) (runstore.Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return runstore.NewMemoryStore(runstore.WithMaxEntries(cfg.MaxRuns)), nil
	case BackendSQLite:
		return runstore.NewSQLiteStore(cfg.SQLitePath)
	case BackendRedis:
		opts := []runstore.RedisOption{runstore.WithTTL(cfg.RedisTTL)}
		if cfg.RedisPrefix != "" {
			opts = append(opts, runstore.WithPrefix(cfg.RedisPrefix))
		}
		return runstore.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
