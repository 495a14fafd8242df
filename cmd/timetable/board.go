package main

import (
	"github.com/spf13/cobra"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/search"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/tui"
)

func boardCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "board [FILTER]",
		Short: "Interactive departures board",
		Long:  `Opens a live board of upcoming departures. Type to filter, Enter copies the selected departure to the clipboard.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv("board")
			if err != nil {
				return err
			}
			defer e.Close()

			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			palette := e.cfg.Palette()
			return tui.Run(e.db, filter, search.Options{Limit: limit, Palette: &palette})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Max departures (0 = no limit)")
	return cmd
}
