package parse

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const dateTokenLayout = "020106" // DDMMYY

var ErrDateToken = errors.New("filename must contain exactly one DDMMYY date token")

// ExtractDateToken returns the single whitespace-delimited six digit token in
// a document filename, e.g. "150124" in "Transport Schedule 150124.pdf".
// A known artefact extension is ignored. No token, or more than one, is an
// error: guessing would silently file a whole week under the wrong dates.
func ExtractDateToken(filename string) (string, error) {
	base := trimArtefactExt(filepath.Base(filename))

	var tokens []string
	for _, field := range strings.Fields(base) {
		if len(field) == len(dateTokenLayout) && allDigits(field) {
			tokens = append(tokens, field)
		}
	}

	switch len(tokens) {
	case 1:
		return tokens[0], nil
	case 0:
		return "", fmt.Errorf("%w: none found in %q", ErrDateToken, filename)
	default:
		return "", fmt.Errorf("%w: %d found in %q (%s)", ErrDateToken, len(tokens), filename, strings.Join(tokens, ", "))
	}
}

var artefactExts = []string{".pdf", ".csv", ".txt", ".eml"}

// trimArtefactExt drops a trailing document extension. Other dots are part of
// the name: "v1.2 150124" has no extension.
func trimArtefactExt(name string) string {
	ext := filepath.Ext(name)
	for _, known := range artefactExts {
		if strings.EqualFold(ext, known) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// ParseDateToken reads a DDMMYY token as local midnight in loc.
func ParseDateToken(token string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateTokenLayout, token, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a valid date: %v", ErrDateToken, token, err)
	}
	return t, nil
}

// ReferenceMonday rolls day back to midnight on the Monday of its week.
func ReferenceMonday(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return time.Date(day.Year(), day.Month(), day.Day()-offset, 0, 0, 0, 0, day.Location())
}

// SectionDate is the calendar date of the section at ordinal index.
func SectionDate(monday time.Time, index int) time.Time {
	return time.Date(monday.Year(), monday.Month(), monday.Day()+index, 0, 0, 0, 0, monday.Location())
}

// WeekFromFilename resolves the reference Monday for a document.
func WeekFromFilename(filename string, loc *time.Location) (time.Time, error) {
	token, err := ExtractDateToken(filename)
	if err != nil {
		return time.Time{}, err
	}
	day, err := ParseDateToken(token, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", filename, err)
	}
	return ReferenceMonday(day), nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
