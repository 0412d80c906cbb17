package database

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/forsetihq/flowd/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func open(dsn string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
	if config.IsSQLiteURL(dsn) {
		return gorm.Open(sqlite.Open(dsn), gormCfg)
	}
	return gorm.Open(postgres.Open(dsn), gormCfg)
}

// Open returns a bare handle without running migrations. Operator tooling
// uses it to inspect or mutate the schema explicitly.
func Open(cfg *config.Config) (*gorm.DB, error) {
	return open(cfg.DatabaseURL)
}

// Store owns the gorm handle and serializes the demo full reset against all
// other access: request paths hold the read side for their duration, Reset
// takes the write side. The handle itself lives in an atomic pointer so
// DB() never touches the mutex; a request already holding its read lease
// would otherwise queue behind a pending Reset writer and deadlock it.
type Store struct {
	mu  sync.RWMutex
	db  atomic.Pointer[gorm.DB]
	dsn string
}

func NewStore(cfg *config.Config) (*Store, error) {
	db, err := open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	s := &Store{dsn: cfg.DatabaseURL}
	s.db.Store(db)
	return s, nil
}

// DB returns the current handle. Request paths are expected to hold a read
// lease (AcquireRead) for their duration; the swap in Reset happens only
// while no lease is outstanding.
func (s *Store) DB() *gorm.DB {
	return s.db.Load()
}

// AcquireRead blocks while a reset is in progress. Every request path takes
// it before touching the store and releases it on exit.
func (s *Store) AcquireRead() { s.mu.RLock() }
func (s *Store) ReleaseRead() { s.mu.RUnlock() }

// Reset destroys and recreates the durable store. Only meaningful for
// sqlite deployments; the write lock excludes all request traffic for the
// duration.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !config.IsSQLiteURL(s.dsn) {
		return fmt.Errorf("reset is only supported on sqlite stores")
	}
	if sqlDB, err := s.db.Load().DB(); err == nil {
		_ = sqlDB.Close()
	}
	path := config.SQLitePath(s.dsn)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove database file: %w", err)
	}

	db, err := open(s.dsn)
	if err != nil {
		return fmt.Errorf("reopen database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return fmt.Errorf("remigrate database: %w", err)
	}
	s.db.Store(db)
	return nil
}

// LastModified reports the store file's mtime; the demo lazy-reset guard
// compares it against the configured age threshold.
func (s *Store) LastModified() (time.Time, error) {
	if !config.IsSQLiteURL(s.dsn) {
		return time.Time{}, fmt.Errorf("mtime is only tracked for sqlite stores")
	}
	info, err := os.Stat(config.SQLitePath(s.dsn))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sqlDB, err := s.db.Load().DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
