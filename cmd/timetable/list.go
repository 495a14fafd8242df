package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/render"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/search"
)

func listCmd() *cobra.Command {
	var filter string
	var limit int
	var tsv bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print upcoming departures",
		Long:  `Prints departures from now on, soonest first. Output is a coloured table on a terminal and tab-separated lines when piped.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv("list")
			if err != nil {
				return err
			}
			defer e.Close()

			palette := e.cfg.Palette()
			deps, err := search.Upcoming(cmd.Context(), e.db, search.Options{
				Filter:  filter,
				Limit:   limit,
				Palette: &palette,
			})
			if err != nil {
				return err
			}

			fd := int(os.Stdout.Fd())
			if tsv || !term.IsTerminal(fd) {
				fmt.Print(render.TSV(deps))
				return nil
			}
			width, _, err := term.GetSize(fd)
			if err != nil {
				width = 0
			}
			fmt.Print(render.Table(deps, render.Options{Width: width, Color: true}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Only departures matching every term")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Max departures (0 = no limit)")
	cmd.Flags().BoolVar(&tsv, "tsv", false, "Tab-separated output even on a terminal")
	return cmd
}
