package parse

import "time"

// Record is one departure in the timetable. The six fields together form
// its natural key.
type Record struct {
	DepartureTime time.Time
	Vehicle       string
	Location      string // "From" column
	TargetGroup   string // "Group" column
	Destination   string
	Comments      string
}

// Key is the comparable natural key of a Record.
type Key struct {
	Departure   int64
	Vehicle     string
	Location    string
	TargetGroup string
	Destination string
	Comments    string
}

func (r Record) Key() Key {
	return Key{
		Departure:   r.DepartureTime.Unix(),
		Vehicle:     r.Vehicle,
		Location:    r.Location,
		TargetGroup: r.TargetGroup,
		Destination: r.Destination,
		Comments:    r.Comments,
	}
}

// Row is one logical table row: column name -> merged cell value.
type Row map[string]string

// Section is the table for one weekday, in document order.
type Section struct {
	Index int
	Text  string
}

type Result struct {
	Records           []Record
	Sections          int
	Rows              int // logical rows reconstructed across all sections
	Invalid           int // rows whose Time field held no usable clock
	Duplicates        int // in-document copies dropped by Dedupe
	SkippedSections   int // sections whose header lacked a mandatory column
	TruncatedSections int // sections cut short by a read error; earlier rows kept
}
