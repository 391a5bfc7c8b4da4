package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testlab/config"
	logg "testlab/internal/logger"
	"time"

	"github.com/valkey-io/valkey-go"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type CacheClient valkey.Client

// Cache holds one client per concern. Any client may be nil, in which case
// that cache is skipped.
type Cache struct {
	Records CacheClient
	Users   CacheClient
	Events  CacheClient
}

type DB struct {
	SQL   *gorm.DB
	Cache Cache
	log   logg.Logger
}

func New(config config.Config) (DB, error) {
	log := logg.New("database").Function("New")

	log.Info("Initializing database")
	db := &DB{log: log}

	err := db.initializeDB(config)
	if err != nil {
		return DB{}, log.Err("failed to initialize database", err)
	}

	if config.DatabaseCacheAddress == "" {
		log.Info("Cache address not configured, running without cache")
		return *db, nil
	}

	err = db.initializeCacheDB(config)
	if err != nil {
		_ = db.Close()
		return DB{}, log.Err("failed to initialize cache database", err)
	}

	return *db, nil
}

func (s *DB) initializeDB(config config.Config) error {
	gormLogger := logger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug),
		logger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)

	gormConfig := &gorm.Config{
		Logger:                                   gormLogger,
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
		CreateBatchSize:                          100,
	}

	return s.initializeSQLiteDB(gormConfig, config)
}

func (s *DB) initializeSQLiteDB(gormConfig *gorm.Config, config config.Config) error {
	log := s.log.Function("initializeSQLiteDB")

	dbPath := config.DatabaseDbPath
	if dbPath == "" {
		return log.Error("database path is empty", "dbPath", dbPath)
	}

	if !isMemoryPath(dbPath) {
		dir := filepath.Dir(dbPath)
		log.Info("Creating database directory", "dir", dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return log.Err("failed to create database directory", err, "dir", dir)
		}
	}

	log.Info("Connecting with GORM", "dbPath", dbPath)
	db, err := gorm.Open(sqlite.Open(sqliteDSN(dbPath)), gormConfig)
	if err != nil {
		return log.Err("failed to open database with GORM", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return log.Err("failed to get database from GORM", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return log.Err("failed to ping database through GORM", err)
	}

	log.Info("Successfully connected with GORM")
	if isMemoryPath(dbPath) {
		// every pooled connection would otherwise get its own empty database
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	s.SQL = db

	return nil
}

func isMemoryPath(dbPath string) bool {
	return dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
}

// sqliteDSN turns on WAL and a busy timeout so concurrent writers queue up
// instead of failing with SQLITE_BUSY.
func sqliteDSN(dbPath string) string {
	if isMemoryPath(dbPath) || strings.Contains(dbPath, "?") {
		return dbPath
	}
	return dbPath + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
}

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")

	if config.DatabaseCacheAddress == "" || config.DatabaseCachePort == 0 {
		return log.Error(
			"cache address or port is empty",
			"address", config.DatabaseCacheAddress,
			"port", config.DatabaseCachePort,
		)
	}

	address := fmt.Sprintf("%s:%d", config.DatabaseCacheAddress, config.DatabaseCachePort)
	log.Info("Connecting to cache", "address", address)

	clients := []struct {
		target *CacheClient
		name   string
		db     int
	}{
		{&s.Cache.Records, "Records", config.DatabaseCacheDB},
		{&s.Cache.Users, "Users", config.DatabaseCacheDB + 1},
		{&s.Cache.Events, "Events", config.DatabaseCacheDB + 2},
	}

	for _, c := range clients {
		client, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: []string{address},
			SelectDB:    c.db,
		})
		if err != nil {
			return log.Err("failed to create cache client", err, "cache", c.name)
		}
		*c.target = client
	}

	return nil
}

func (s *DB) Close() (err error) {
	if s.SQL != nil {
		sqlDB, dbErr := s.SQL.DB()
		if dbErr == nil {
			if closeErr := sqlDB.Close(); closeErr != nil {
				err = s.log.Err("failed to close database", closeErr)
			}
		}
	}

	for _, client := range []CacheClient{s.Cache.Records, s.Cache.Users, s.Cache.Events} {
		if client != nil {
			client.Close()
		}
	}

	return err
}

func (s *DB) SQLWithContext(ctx context.Context) *gorm.DB {
	return s.SQL.WithContext(ctx)
}

func (s *DB) Ping(ctx context.Context) error {
	sqlDB, err := s.SQL.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *DB) FlushAllCaches() error {
	log := s.log.Function("FlushAllCaches")
	log.Info("Flushing all cache databases")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cacheClients := []struct {
		client CacheClient
		name   string
	}{
		{s.Cache.Records, "Records"},
		{s.Cache.Users, "Users"},
	}

	for _, cache := range cacheClients {
		if cache.client != nil {
			if err := cache.client.Do(ctx, cache.client.B().Flushdb().Build()).Error(); err != nil {
				return log.Err("failed to flush cache database", err, "cache", cache.name)
			}
			log.Info("Successfully flushed cache database", "cache", cache.name)
		}
	}

	return nil
}
