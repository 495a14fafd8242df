package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/config"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/index"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/logging"
)

var version = "dev"

var configPath string

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "timetable",
		Short:         "Bus timetable - ingest emailed transport schedules and show upcoming departures",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/timetable/config.toml)")

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(pruneCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what most subcommands need: config, an open store and a logger.
type env struct {
	cfg *config.Config
	db  *index.DB
	log zerolog.Logger
}

func openEnv(component string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	db, err := index.OpenDB(cfg.DBPath, loc)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return &env{cfg: cfg, db: db, log: logging.New(component, cfg.LogLevel)}, nil
}

func (e *env) Close() error {
	return e.db.Close()
}
