package server

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/search"
)

type BoardData struct {
	Departures []search.Departure
	Now        time.Time
	Filter     string
}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="60">
<title>Bus Timetable</title>
<style>
:root { --muted-border-color: #8a9aa9; }
body { font-family: system-ui, sans-serif; margin: 1.5rem; color: #253745; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #d5dde4; }
td.time { font-weight: 600; white-space: nowrap; }
td.label { font-size: .9em; white-space: nowrap; }
.empty { color: var(--muted-border-color); }
</style>
</head>
<body>
`

// Board renders the departures page. Text is escaped; colours come from the
// classifier and palette, never from stored data.
func Board(data BoardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(pageHead)
		fmt.Fprintf(&b, "<h1>Upcoming buses</h1>\n<p>Updated %s</p>\n", templ.EscapeString(data.Now.Format("Mon 02 Jan 15:04")))
		fmt.Fprintf(&b, `<form method="get" action="/"><input type="search" name="q" value="%s" placeholder="Filter"></form>`+"\n",
			templ.EscapeString(data.Filter))

		if len(data.Departures) == 0 {
			b.WriteString(`<p class="empty">No upcoming departures.</p>` + "\n")
		} else {
			b.WriteString("<table>\n<thead><tr><th>Time</th><th>Due</th><th>Vehicle</th><th>From</th><th>Group</th><th>Destination</th><th>Comments</th></tr></thead>\n<tbody>\n")
			for _, d := range data.Departures {
				writeRow(&b, d)
			}
			b.WriteString("</tbody>\n</table>\n")
		}
		b.WriteString("</body>\n</html>\n")

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeRow(b *strings.Builder, d search.Departure) {
	color := d.Urgency.CSS()
	fmt.Fprintf(b, `<tr class="%s">`, templ.EscapeString(d.Urgency.String()))
	fmt.Fprintf(b, `<td class="time" style="color: %s">%s</td>`, templ.EscapeString(color), templ.EscapeString(d.When))
	fmt.Fprintf(b, `<td class="label" style="color: %s">%s</td>`, templ.EscapeString(color), templ.EscapeString(d.Label))
	fmt.Fprintf(b, "<td>%s</td>", templ.EscapeString(d.Vehicle))
	fmt.Fprintf(b, `<td style="color: %s">%s</td>`, templ.EscapeString(d.LocationColor), templ.EscapeString(d.Location))
	fmt.Fprintf(b, "<td>%s</td>", templ.EscapeString(d.TargetGroup))
	fmt.Fprintf(b, "<td>%s</td>", templ.EscapeString(d.Destination))
	fmt.Fprintf(b, "<td>%s</td>", templ.EscapeString(d.Comments))
	b.WriteString("</tr>\n")
}
