package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func pruneCmd() *cobra.Command {
	var before string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete departures that have already left",
		Long: `Deletes stored departures strictly before a cutoff. --before takes a date
(2006-01-02), an RFC 3339 time or a duration back from now (e.g. 168h).
The default cutoff is now.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv("prune")
			if err != nil {
				return err
			}
			defer e.Close()

			cutoff, err := parseCutoff(before, time.Now(), e.db.Location())
			if err != nil {
				return err
			}
			n, err := e.db.DeleteBefore(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Deleted %d departure(s) before %s\n", n, cutoff.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&before, "before", "", "Cutoff: date, RFC 3339 time or duration ago (default now)")
	return cmd
}

func parseCutoff(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --before %q: want a date, RFC 3339 time or duration", s)
}
