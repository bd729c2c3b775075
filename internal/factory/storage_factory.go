package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/inbox-agent/internal/config"
	"github.com/mikey/inbox-agent/internal/store"
)

// StorageFactory creates the relational store based on configuration
type StorageFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config, logger *zap.Logger) *StorageFactory {
	return &StorageFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore opens the store for the configured driver.
func (f *StorageFactory) CreateStore() (*store.SQLStore, error) {
	storageCfg := f.cfg.GetStorage()

	switch storageCfg.Driver {
	case "sqlite":
		sqlitePath := storageCfg.SQLitePath
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
		// Pragmas go on the DSN so every pooled connection gets them
		dsn := sqlitePath + "?_foreign_keys=on&_journal_mode=WAL"
		return store.Open("sqlite3", dsn, f.logger)
	case "postgres":
		if storageCfg.DSN == "" {
			return nil, fmt.Errorf("storage.dsn is required for the postgres driver")
		}
		return store.Open("pgx", storageCfg.DSN, f.logger)
	case "mysql":
		if storageCfg.DSN == "" {
			return nil, fmt.Errorf("storage.dsn is required for the mysql driver")
		}
		return store.Open("mysql", storageCfg.DSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", storageCfg.Driver)
	}
}
