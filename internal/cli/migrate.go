package cli

import (
	"context"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/bhavishya-khunger/aiformbuilder/internal/config"
	"github.com/bhavishya-khunger/aiformbuilder/internal/db"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.LoadFile(configPath, config.FromEnv())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return err
	}
	defer dbh.Close()

	if err := db.EnsureSchema(ctx, dbh, db.Driver(cfg.DBDriver)); err != nil {
		return err
	}
	log.Printf("schema ready (db=%s)", cfg.DBDriver)
	return nil
}
