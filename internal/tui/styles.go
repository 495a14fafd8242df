package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/classify"
)

var (
	colorPrimary   = lipgloss.Color("12")  // bright blue
	colorDim       = lipgloss.Color("240") // gray
	colorHighlight = lipgloss.Color("11")  // bright yellow
	colorBorder    = lipgloss.Color("238") // dark gray

	styleInput = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	styleListSelected = lipgloss.NewStyle().
				Foreground(colorHighlight).
				Bold(true)

	styleListNormal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	stylePanelBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder)

	styleActiveBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary)

	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)

	styleTitle = lipgloss.NewStyle().
			Foreground(colorDim).
			Bold(true)

	// Urgency colours follow the web board.
	styleUrgency = map[classify.Level]lipgloss.Style{
		classify.Danger:  lipgloss.NewStyle().Foreground(lipgloss.Color(classify.Danger.CSS())).Bold(true),
		classify.Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(classify.Warning.CSS())).Bold(true),
		classify.Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6f8fa8")),
		classify.Neutral: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		classify.Muted:   lipgloss.NewStyle().Foreground(colorDim),
	}
)

func urgencyStyle(l classify.Level) lipgloss.Style {
	if s, ok := styleUrgency[l]; ok {
		return s
	}
	return styleListNormal
}

// locationStyle colours a location with its palette hex, when it is one.
func locationStyle(hex string) lipgloss.Style {
	if len(hex) == 7 && hex[0] == '#' {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
	}
	return styleListNormal
}
