package main

import (
	"fmt"
	"os"
	"testlab/cmd/migration/initialize"
	"testlab/cmd/migration/seed"
	"testlab/config"
	"testlab/internal/database"
	"testlab/internal/logger"
	"text/tabwriter"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"
)

var downSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations and bootstrap admin roles",
	Args:  cobra.NoArgs,
	RunE: withDatabase(func(db database.DB, cfg config.Config, log logger.Logger) error {
		applied, err := db.Migrate(migrate.Up, 0)
		if err != nil {
			return err
		}
		fmt.Printf("Applied %d migrations\n", applied)
		return initialize.InitializeTables(db, cfg, log)
	}),
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations and flush cached records",
	Args:  cobra.NoArgs,
	RunE: withDatabase(func(db database.DB, cfg config.Config, log logger.Logger) error {
		if cfg.IsProduction() {
			return log.ErrMsg("refusing to roll back migrations in production")
		}
		applied, err := db.Migrate(migrate.Down, downSteps)
		if err != nil {
			return err
		}
		fmt.Printf("Rolled back %d migrations\n", applied)
		return db.FlushAllCaches()
	}),
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List applied migrations",
	Args:  cobra.NoArgs,
	RunE: withDatabase(func(db database.DB, cfg config.Config, log logger.Logger) error {
		records, err := db.MigrationRecords()
		if err != nil {
			return log.Err("failed to read migration records", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MIGRATION\tAPPLIED AT")
		for _, record := range records {
			fmt.Fprintf(w, "%s\t%s\n", record.Id, record.AppliedAt.Format(time.RFC3339))
		}
		return w.Flush()
	}),
}

var migrateSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample records into an empty development database",
	Args:  cobra.NoArgs,
	RunE: withDatabase(func(db database.DB, cfg config.Config, log logger.Logger) error {
		if cfg.GeneralEnvironment != config.EnvironmentDevelopment {
			return log.ErrMsg("seeding is only allowed in development")
		}
		return seed.Seed(db, cfg, log)
	}),
}

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "Number of migrations to roll back (0 for all)")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateSeedCmd)
}

func withDatabase(run func(db database.DB, cfg config.Config, log logger.Logger) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log := logger.New("main").Function(cmd.Name())

		cfg, err := config.InitConfig()
		if err != nil {
			return log.Err("failed to load config", err)
		}

		db, err := database.New(cfg)
		if err != nil {
			return log.Err("failed to open database", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Er("failed to close database", err)
			}
		}()

		return run(db, cfg, log)
	}
}
