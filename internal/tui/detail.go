package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/mattn/go-runewidth"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/search"
)

// renderDetail lays out every field of d, wrapping long values to width.
func renderDetail(d search.Departure, width int) string {
	fields := []struct{ name, value string }{
		{"Departs", d.When},
		{"Due", urgencyStyle(d.Urgency).Render(d.Label)},
		{"Vehicle", d.Vehicle},
		{"From", locationStyle(d.LocationColor).Render(d.Location)},
		{"Group", d.TargetGroup},
		{"To", d.Destination},
		{"Comments", d.Comments},
	}
	const labelW = 10
	valueW := width - labelW
	if valueW < 10 {
		valueW = 10
	}

	var b strings.Builder
	for _, f := range fields {
		label := styleTitle.Render(runewidth.FillRight(f.name, labelW))
		lines := wrapWords(f.value, valueW)
		for i, l := range lines {
			if i == 0 {
				b.WriteString(label)
			} else {
				b.WriteString(strings.Repeat(" ", labelW))
			}
			b.WriteString(l)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// wrapWords breaks plain text on spaces so no line is wider than width.
// Values carrying escape sequences are returned whole.
func wrapWords(s string, width int) []string {
	if s == "" {
		return []string{""}
	}
	if strings.Contains(s, "\x1b") || runewidth.StringWidth(s) <= width {
		return []string{s}
	}
	var lines []string
	var cur string
	for _, w := range strings.Fields(s) {
		switch {
		case cur == "":
			cur = w
		case runewidth.StringWidth(cur)+1+runewidth.StringWidth(w) <= width:
			cur += " " + w
		default:
			lines = append(lines, cur)
			cur = w
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func detailKey(d search.Departure) string {
	k := d.Key()
	return fmt.Sprintf("%d|%s|%s|%s|%s|%s", k.Departure, k.Vehicle, k.Location, k.TargetGroup, k.Destination, k.Comments)
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	return viewport.New(width, height)
}
