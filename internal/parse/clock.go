package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var ErrNoClock = errors.New("no HHMM clock in time field")

var digitRunRe = regexp.MustCompile(`\d+`)

// ExtractClock finds the first run of exactly four digits in a Time cell and
// reads it as HHMM. Longer digit runs are not split.
func ExtractClock(field string) (hour, minute int, err error) {
	for _, run := range digitRunRe.FindAllString(field, -1) {
		if len(run) != 4 {
			continue
		}
		hour, _ = strconv.Atoi(run[:2])
		minute, _ = strconv.Atoi(run[2:])
		if hour > 23 || minute > 59 {
			return 0, 0, fmt.Errorf("%w: %q out of range", ErrNoClock, run)
		}
		return hour, minute, nil
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrNoClock, field)
}

// DepartureTime places the clock in a Time cell on the given date.
func DepartureTime(date time.Time, field string) (time.Time, error) {
	hour, minute, err := ExtractClock(field)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}
