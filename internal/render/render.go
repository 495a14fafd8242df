package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/classify"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/search"
)

const (
	colorReset  = "\033[0m"
	colorDanger = "\033[1;31m" // bold red
	colorWarn   = "\033[1;33m" // bold yellow
	colorInfo   = "\033[36m"   // cyan
	colorDim    = "\033[2m"
	colorHeader = "\033[1m"
)

type Options struct {
	Width int  // terminal width, 0 = no truncation
	Color bool // emit ANSI colours
}

var headers = []string{"WHEN", "DUE", "VEHICLE", "FROM", "GROUP", "TO", "COMMENTS"}

const gap = "  "

// Table lays departures out in aligned columns. Comments absorb whatever
// width is left and are cut with an ellipsis when the line would overflow.
func Table(deps []search.Departure, opts Options) string {
	if len(deps) == 0 {
		return "(no upcoming departures)\n"
	}

	rows := make([][]string, len(deps))
	for i, d := range deps {
		rows[i] = cells(d)
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if w := runewidth.StringWidth(c); w > widths[i] {
				widths[i] = w
			}
		}
	}
	last := len(headers) - 1
	if opts.Width > 0 {
		used := 0
		for _, w := range widths[:last] {
			used += w + len(gap)
		}
		if room := opts.Width - used; room < widths[last] {
			widths[last] = max(room, runewidth.StringWidth(headers[last]))
		}
	}

	var b strings.Builder
	writeRow := func(r []string, paint func(col int, s string) string) {
		for i, c := range r {
			if i > 0 {
				b.WriteString(gap)
			}
			c = runewidth.Truncate(c, widths[i], "…")
			if i < last {
				c = runewidth.FillRight(c, widths[i])
			}
			b.WriteString(paint(i, c))
		}
		b.WriteString("\n")
	}

	writeRow(headers, func(_ int, s string) string {
		return paintIf(opts.Color, colorHeader, s)
	})
	for i, r := range rows {
		d := deps[i]
		writeRow(r, func(col int, s string) string {
			switch col {
			case 0, 1:
				return paintIf(opts.Color, urgencyColor(d.Urgency), s)
			case 3:
				return paintIf(opts.Color, hexColor(d.LocationColor), s)
			}
			return s
		})
	}
	return b.String()
}

// TSV writes one departure per line for scripts: RFC 3339 time, relative
// label, urgency, then the record columns.
func TSV(deps []search.Departure) string {
	var b strings.Builder
	for _, d := range deps {
		fields := []string{
			d.DepartureTime.Format("2006-01-02T15:04:05Z07:00"),
			d.Label,
			d.Urgency.String(),
			d.Vehicle, d.Location, d.TargetGroup, d.Destination, d.Comments,
		}
		for i, f := range fields {
			fields[i] = strings.NewReplacer("\t", " ", "\n", " ").Replace(f)
		}
		b.WriteString(strings.Join(fields, "\t"))
		b.WriteString("\n")
	}
	return b.String()
}

func cells(d search.Departure) []string {
	return []string{d.When, d.Label, d.Vehicle, d.Location, d.TargetGroup, d.Destination, d.Comments}
}

func urgencyColor(l classify.Level) string {
	switch l {
	case classify.Danger:
		return colorDanger
	case classify.Warning:
		return colorWarn
	case classify.Info:
		return colorInfo
	case classify.Muted:
		return colorDim
	}
	return ""
}

// hexColor turns "#rrggbb" into a 24-bit foreground escape, "" otherwise.
func hexColor(hex string) string {
	if len(hex) != 7 || hex[0] != '#' {
		return ""
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("\033[38;2;%d;%d;%dm", v>>16&0xff, v>>8&0xff, v&0xff)
}

func paintIf(on bool, color, s string) string {
	if !on || color == "" {
		return s
	}
	return color + s + colorReset
}
