package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/convert"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/ingest"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/mailbox"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/metrics"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/scan"
)

func newPipeline(e *env, reg prometheus.Registerer) (*ingest.Pipeline, error) {
	m, err := metrics.NewIngest(reg)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	return ingest.New(ingest.Options{
		DB:               e.db,
		Converter:        convert.Exec{Argv: e.cfg.Converter},
		Archive:          ingest.Archive{Dir: e.cfg.DataDir},
		AttachmentPrefix: e.cfg.AttachmentPrefix,
		Logger:           e.log,
		Metrics:          m,
	})
}

func ingestCmd() *cobra.Command {
	var asEmail bool
	var name, dir string

	cmd := &cobra.Command{
		Use:   "ingest [FILE]",
		Short: "Ingest a schedule email, PDF or converted CSV export",
		Long: `Ingest one schedule. FILE may be a raw email (.eml or --email), a schedule
PDF, or text already converted to CSV. The week is read from the DDMMYY token
in the file name; --name supplies a different name to read it from.
With --dir every artefact under the directory is ingested, oldest first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (dir == "") == (len(args) == 0) {
				return errors.New("give exactly one of FILE or --dir")
			}

			e, err := openEnv("ingest")
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := newPipeline(e, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if dir != "" {
				total, failed, err := p.IngestInbox(ctx, dir)
				if err != nil {
					return err
				}
				fmt.Println(total.Message())
				fmt.Fprintf(os.Stderr, "Done. %s failed=%d\n", total, failed)
				if failed > 0 {
					return fmt.Errorf("%d file(s) failed", failed)
				}
				return nil
			}

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(path)
			}

			var stats ingest.Stats
			switch {
			case asEmail || scan.KindOf(path) == scan.KindEmail:
				stats, err = p.IngestEmail(ctx, data)
			case scan.KindOf(path) == scan.KindPDF:
				stats, err = p.IngestPDF(ctx, name, data)
			default:
				stats, err = p.IngestDocument(ctx, ingest.Document{Filename: name, Text: string(data)})
			}
			if errors.Is(err, mailbox.ErrNoAttachment) {
				fmt.Println("Email received, no valid attachment found")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Println(stats.Message())
			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asEmail, "email", false, "Treat FILE as a raw email whatever its extension")
	cmd.Flags().StringVar(&name, "name", "", "Source file name carrying the DDMMYY token (default: FILE's name)")
	cmd.Flags().StringVar(&dir, "dir", "", "Ingest every .eml/.pdf/.csv/.txt under this directory")
	return cmd
}
