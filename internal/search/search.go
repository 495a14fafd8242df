package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/classify"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/index"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/parse"
)

// Departure is a stored record annotated for display at a given instant.
type Departure struct {
	parse.Record
	When          string // "Mon 15 08:30"
	Label         string // "in 25 min", "tomorrow", ...
	Urgency       classify.Level
	LocationColor string
}

type Options struct {
	Now     time.Time // zero means time.Now()
	Filter  string    // whitespace-separated terms, each must match some text column
	Limit   int       // <= 0 means no limit
	Palette *classify.Palette
}

var filterColumns = []string{"vehicle", "location", "target_group", "destination", "comments"}

// Upcoming returns departures at or after opts.Now, soonest first.
func Upcoming(ctx context.Context, db *index.DB, opts Options) ([]Departure, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	palette := classify.DefaultPalette()
	if opts.Palette != nil {
		palette = *opts.Palette
	}

	var records []parse.Record
	var err error
	if strings.TrimSpace(opts.Filter) == "" {
		records, err = db.Upcoming(ctx, opts.Now, opts.Limit)
	} else {
		records, err = searchLike(ctx, db, opts)
	}
	if err != nil {
		return nil, err
	}

	out := make([]Departure, 0, len(records))
	for _, r := range records {
		out = append(out, Annotate(r, opts.Now, palette))
	}
	return out, nil
}

// Annotate derives the display fields of r relative to now.
func Annotate(r parse.Record, now time.Time, palette classify.Palette) Departure {
	return Departure{
		Record:        r,
		When:          classify.FormatDeparture(r.DepartureTime),
		Label:         classify.RelativeLabel(r.DepartureTime, now),
		Urgency:       classify.Urgency(r.DepartureTime, now),
		LocationColor: palette.Color(r.Location),
	}
}

func searchLike(ctx context.Context, db *index.DB, opts Options) ([]parse.Record, error) {
	var conditions []string
	var args []interface{}

	conditions = append(conditions, "departure_time >= ?")
	args = append(args, index.CeilUnix(opts.Now))

	// every term must appear in at least one column
	for _, term := range strings.Fields(opts.Filter) {
		pattern := "%" + escapeLike(term) + "%"
		var ors []string
		for _, col := range filterColumns {
			ors = append(ors, col+` LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
		conditions = append(conditions, "("+strings.Join(ors, " OR ")+")")
	}

	where := strings.Join(conditions, " AND ")
	query := fmt.Sprintf(`
		SELECT departure_time, vehicle, location, target_group, destination, comments
		FROM timetable
		WHERE %s
		ORDER BY departure_time ASC, rowid ASC`, where)
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := db.Raw().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []parse.Record
	for rows.Next() {
		var r parse.Record
		var departure int64
		if err := rows.Scan(&departure, &r.Vehicle, &r.Location, &r.TargetGroup, &r.Destination, &r.Comments); err != nil {
			return nil, err
		}
		r.DepartureTime = time.Unix(departure, 0).In(db.Location())
		results = append(results, r)
	}
	return results, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
