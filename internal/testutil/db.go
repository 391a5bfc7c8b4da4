// Package testutil builds migrated throwaway databases for package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"testlab/config"
	"testlab/internal/database"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/require"
)

func Config(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		GeneralEnvironment:    config.EnvironmentTest,
		GeneralVersion:        "test",
		ServerPort:            8288,
		ServerCorsOrigins:     "*",
		ServerSubmitRateLimit: 1000,
		DatabaseDbPath:        filepath.Join(t.TempDir(), "testlab.db"),
		SecurityJwtSecret:     "test-secret",
		SecurityJwtIssuer:     "testlab-test",
		SecurityTokenTTL:      time.Hour,
		CompanyName:           "Sanwariya Testing Lab LLP",
		CompanyAddressLine1:   "Ground Floor, Plot No.-G1-548",
		CompanyAddressLine2:   "RIICO industrial area, Sitapura",
		CompanyCity:           "Jaipur",
		CompanyState:          "Rajasthan",
		CompanyPincode:        "302022",
		CompanyGSTIN:          "08AFQFS6982Q1ZK",
		CompanyEmail:          "sanwariyatestinglab@gmail.com",
		CompanyPhones:         "8890074166,7737031940",
	}
}

// NewDB opens a migrated SQLite database under t.TempDir without a cache.
func NewDB(t *testing.T) database.DB {
	t.Helper()

	db, err := database.New(Config(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Migrate(migrate.Up, 0)
	require.NoError(t, err)

	return db
}
