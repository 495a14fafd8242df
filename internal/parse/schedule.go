package parse

import (
	"errors"
	"time"
)

// ParseSchedule turns one converted schedule document into sorted,
// de-duplicated records. filename must carry the DDMMYY token that dates the
// week; the first table is that week's Monday, the next Tuesday, and so on.
//
// A bad date token fails the whole document before anything is parsed.
// Problems confined to one row or one table are counted in the Result and
// parsing carries on.
func ParseSchedule(filename, raw string, loc *time.Location) (*Result, error) {
	if loc == nil {
		loc = time.Local
	}
	monday, err := WeekFromFilename(filename, loc)
	if err != nil {
		return nil, err
	}

	sections := SplitSections(raw)
	result := &Result{Sections: len(sections)}

	for _, sec := range sections {
		rows, err := ReconstructRows(sec.Text)
		result.addSection(SectionDate(monday, sec.Index), rows, err)
	}

	SortRecords(result.Records)
	result.Records, result.Duplicates = Dedupe(result.Records)
	return result, nil
}

// addSection folds one section's rows into r. A truncated section keeps the
// rows read before the failure; any other error skips the section.
func (r *Result) addSection(date time.Time, rows []Row, err error) {
	switch {
	case errors.Is(err, ErrTruncated):
		r.TruncatedSections++
	case err != nil:
		r.SkippedSections++
		return
	}
	r.Rows += len(rows)

	for _, row := range rows {
		departure, err := DepartureTime(date, row[ColTime])
		if err != nil {
			r.Invalid++
			continue
		}
		r.Records = append(r.Records, Record{
			DepartureTime: departure,
			Vehicle:       row[ColVehicle],
			Location:      row[ColFrom],
			TargetGroup:   row[ColGroup],
			Destination:   row[ColDestination],
			Comments:      comments(row),
		})
	}
}

func comments(row Row) string {
	if v, ok := row[ColComments]; ok {
		return v
	}
	return row["Comment"]
}
