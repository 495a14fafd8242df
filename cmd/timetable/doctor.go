package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/config"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/index"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/scan"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, converter, data dir and DB, and show stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			fmt.Println("=== Config ===")
			if cfg.Path == "" {
				fmt.Println("  File: (defaults only)")
			} else {
				fmt.Printf("  File: %s\n", cfg.Path)
			}
			loc, _ := cfg.Location()
			fmt.Printf("  Timezone: %s\n", loc)
			fmt.Printf("  Attachment prefix: %q\n", cfg.AttachmentPrefix)

			fmt.Println("\n=== Converter ===")
			if len(cfg.Converter) == 0 {
				fmt.Println("  NOT CONFIGURED (PDF and email ingestion disabled)")
			} else if path, err := exec.LookPath(cfg.Converter[0]); err != nil {
				fmt.Printf("  %s: NOT FOUND in PATH\n", cfg.Converter[0])
			} else {
				fmt.Printf("  %s (OK)\n", path)
			}

			fmt.Println("\n=== Data ===")
			checkDir("Data dir", cfg.DataDir)
			for _, sub := range []string{"email", "pdf", "csv"} {
				files, err := scan.ScanInbox(filepath.Join(cfg.DataDir, sub))
				if err != nil {
					fmt.Printf("  %s: scan error: %v\n", sub, err)
					continue
				}
				fmt.Printf("  Archived %-5s %d\n", sub+":", len(files))
			}

			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'timetable ingest' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath, loc)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			ctx := cmd.Context()
			version, err := db.SchemaVersion()
			if err != nil {
				return fmt.Errorf("schema version: %w", err)
			}
			count, err := db.Count(ctx)
			if err != nil {
				return fmt.Errorf("count departures: %w", err)
			}
			fmt.Printf("  Schema: v%s\n", version)
			fmt.Printf("  Departures: %d\n", count)

			first, last, ok, err := db.Span(ctx)
			if err != nil {
				return fmt.Errorf("span: %w", err)
			}
			if ok {
				fmt.Printf("  Earliest: %s\n", first.Format(time.RFC3339))
				fmt.Printf("  Latest:   %s\n", last.Format(time.RFC3339))
				upcoming, err := db.Upcoming(ctx, time.Now(), 0)
				if err != nil {
					return fmt.Errorf("upcoming: %w", err)
				}
				fmt.Printf("  Upcoming: %d\n", len(upcoming))
			}

			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}
			return nil
		},
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}
