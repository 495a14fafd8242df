package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/server"
)

func serveCmd() *cobra.Command {
	var listen string
	var boardLimit int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web board and the email upload endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv("server")
			if err != nil {
				return err
			}
			defer e.Close()

			if listen == "" {
				listen = e.cfg.Listen
			}
			p, err := newPipeline(e, prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			srv := server.New(server.Options{
				DB:         e.db,
				Pipeline:   p,
				Palette:    e.cfg.Palette(),
				Gatherer:   prometheus.DefaultGatherer,
				Logger:     e.log,
				BoardLimit: boardLimit,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- srv.Listen(listen) }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			e.log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config, :8080)")
	cmd.Flags().IntVar(&boardLimit, "board-limit", 0, "Max rows on the board page (0 = all)")
	return cmd
}
