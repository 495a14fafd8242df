package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/search"
)

// linesPerItem is the number of terminal lines each departure occupies.
const linesPerItem = 2

// renderList renders the left panel: departures with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.departures) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No upcoming departures")
	}

	var lines []string
	for i, d := range m.departures {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatDepartureLine(d, width, i == m.cursor)...)
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// formatDepartureLine formats one departure as two lines:
//
//	line 1: [>] Mon 15 08:30  in 25 min
//	line 2:     Bus 1  SMC -> MES
func formatDepartureLine(d search.Departure, width int, selected bool) []string {
	style := urgencyStyle(d.Urgency)
	line1 := fmt.Sprintf("%s  %s", d.When, style.Render(d.Label))
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	route := fmt.Sprintf("%s  %s -> %s", d.Vehicle, d.Location, d.Destination)
	routeMax := width - 4
	if routeMax < 0 {
		routeMax = 0
	}
	if runewidth.StringWidth(route) > routeMax {
		route = runewidth.Truncate(route, routeMax, "…")
	}
	line2 := "    " + locationStyle(d.LocationColor).Render(route)

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := listHeight / linesPerItem
	if visibleItems < 1 {
		visibleItems = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
