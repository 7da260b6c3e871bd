package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	_ "github.com/lib/pq"

	"github.com/sawpanic/pairscreen/internal/config"
)

const (
	appName = "pairscreen"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Tier-1 pair screening and algorithm compliance toolkit",
		Version: version,
		Long: `pairscreen screens the tier-1 cryptocurrency universe for tradable
long/short pairs, enforces sector diversification limits, and validates
algorithm confidence against realized outcomes.`,
	}
	rootCmd.PersistentFlags().String("config", "config/pairscreen.yaml", "Path to YAML configuration")

	screenCmd := &cobra.Command{
		Use:   "screen",
		Short: "Run the pair screening pipeline",
		Long:  "Scores all oriented tier-1 pairs, applies quality and correlation filters, and reports the sector-capped selection",
		RunE:  runScreen,
	}
	addScreenFlags(screenCmd.Flags())

	complianceCmd := &cobra.Command{
		Use:   "compliance",
		Short: "Assess prediction-outcome compliance",
		Long:  "Replays the prediction ledger through the full statistical assessment; exits non-zero when the algorithm is not production ready",
		RunE:  runCompliance,
	}
	addComplianceFlags(complianceCmd.Flags())

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the continuous confidence monitor",
		Long:  "Starts the periodic assessment loop, threshold monitoring with emergency escalation, and the monitoring HTTP server",
		RunE:  runMonitorLoop,
	}
	addMonitorFlags(monitorCmd.Flags())

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		Long:  "Applies all pending core schema migrations in order and reports the resulting schema version",
		RunE:  runMigrate,
	}

	rootCmd.AddCommand(screenCmd, complianceCmd, monitorCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func addScreenFlags(fs *pflag.FlagSet) {
	fs.Int("window-days", 0, "Daily-close lookback window in days (0 uses the configured default)")
	fs.String("as-of", "", "Pin the window end (YYYY-MM-DD); empty means now")
	fs.String("report-path", "", "Write the screening report to this file instead of stdout")
}

func addComplianceFlags(fs *pflag.FlagSet) {
	fs.Int("window-days", 0, "Trailing assessment window in days (0 means all history)")
	fs.Int("out-of-sample-days", 0, "Holdout tail length in days (0 uses the configured default)")
	fs.Int("bootstrap-iters", 0, "Bootstrap resampling iterations (0 uses the configured default)")
	fs.Int64("seed", 0, "Bootstrap RNG seed (0 uses the configured default)")
	fs.String("report-path", "", "Write the compliance report to this file instead of stdout")
}

func addMonitorFlags(fs *pflag.FlagSet) {
	fs.Int("window-days", 0, "Trailing assessment window in days (0 means all history)")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(path)
}

func openStore(cfg config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to store: %w", err)
	}
	return db, nil
}
