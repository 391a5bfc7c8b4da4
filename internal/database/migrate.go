package database

import (
	"embed"

	migrate "github.com/rubenv/sql-migrate"
)

const migrationDialect = "sqlite3"

//go:embed migrations/*.sql
var migrationFiles embed.FS

func MigrationSource() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
}

// Migrate applies up to max migrations in direction; max <= 0 means all.
func (s *DB) Migrate(direction migrate.MigrationDirection, max int) (int, error) {
	log := s.log.Function("Migrate")

	sqlDB, err := s.SQL.DB()
	if err != nil {
		return 0, log.Err("failed to get database from GORM", err)
	}

	applied, err := migrate.ExecMax(sqlDB, migrationDialect, MigrationSource(), direction, max)
	if err != nil {
		return applied, log.Err("failed to apply migrations", err, "applied", applied)
	}

	log.Info("Applied migrations", "applied", applied, "direction", direction)
	return applied, nil
}

func (s *DB) MigrationRecords() ([]*migrate.MigrationRecord, error) {
	sqlDB, err := s.SQL.DB()
	if err != nil {
		return nil, err
	}
	return migrate.GetMigrationRecords(sqlDB, migrationDialect)
}
