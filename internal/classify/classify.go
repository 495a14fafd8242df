// Package classify derives display metadata for a departure from the
// current time. Everything here is a pure function of its arguments.
package classify

import (
	"fmt"
	"strings"
	"time"
)

const (
	LabelMissed   = "MISSED"
	LabelNow      = "NOW"
	LabelTomorrow = "tomorrow"
)

// RelativeLabel describes how far away a departure is: "MISSED" once it has
// left, "tomorrow" or "in N days" for later calendar days, otherwise the
// time remaining as "in 2 hr 15 min", "in 45 min", "in 1 hr" or "NOW".
// Calendar days are compared in now's location.
func RelativeLabel(departure, now time.Time) string {
	if departure.Before(now) {
		return LabelMissed
	}

	if days := DaysBetween(now, departure); days > 0 {
		if days == 1 {
			return LabelTomorrow
		}
		return fmt.Sprintf("in %d days", days)
	}

	remaining := departure.Sub(now)
	hours := int(remaining / time.Hour)
	minutes := int((remaining % time.Hour) / time.Minute)
	if hours == 0 && minutes == 0 {
		return LabelNow
	}

	parts := []string{"in"}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hr", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d min", minutes))
	}
	return strings.Join(parts, " ")
}

// DaysBetween counts calendar-day boundaries from a to b, in a's location.
func DaysBetween(a, b time.Time) int {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	// Noon UTC keeps the division exact across DST changes.
	da := time.Date(ay, am, ad, 12, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 12, 0, 0, 0, time.UTC)
	return int(db.Sub(da) / (24 * time.Hour))
}

// Level is how urgently a departure needs attention.
type Level int

const (
	Neutral Level = iota
	Danger
	Warning
	Info
	Muted
)

var levelNames = map[Level]string{
	Neutral: "neutral",
	Danger:  "danger",
	Warning: "warning",
	Info:    "info",
	Muted:   "muted",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// CSS is the page colour for the level.
func (l Level) CSS() string {
	switch l {
	case Danger:
		return "#950f24"
	case Warning:
		return "#b7950b"
	case Info:
		return "#39556b"
	case Muted:
		return "var(--muted-border-color)"
	default:
		return "#253745"
	}
}

// Thresholds are inclusive upper bounds on the time remaining.
const (
	DangerWithin  = 5 * time.Minute
	WarningWithin = 15 * time.Minute
	InfoWithin    = 120 * time.Minute
)

// Urgency grades a departure; the first matching rule wins.
func Urgency(departure, now time.Time) Level {
	remaining := departure.Sub(now)
	switch {
	case remaining <= DangerWithin:
		return Danger
	case remaining <= WarningWithin:
		return Warning
	case remaining <= InfoWithin:
		return Info
	case DaysBetween(now, departure) == 0:
		return Neutral
	default:
		return Muted
	}
}

// FormatDeparture renders a departure as e.g. "Mon 15 08:30".
func FormatDeparture(departure time.Time) string {
	return departure.Format("Mon 02 15:04")
}
