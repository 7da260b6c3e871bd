package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/pairscreen/internal/persistence/postgres"
)

// runMigrate applies all pending schema migrations.
func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := postgres.NewMigrator(db)
	applied, err := migrator.Run(ctx)
	if err != nil {
		return err
	}

	version, err := migrator.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("applied", applied).Int("schema_version", version).Msg("Migrations complete")
	return nil
}
