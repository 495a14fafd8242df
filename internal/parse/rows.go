package parse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column names as printed in the schedule header.
const (
	ColTime        = "Time"
	ColVehicle     = "Vehicle"
	ColFrom        = "From"
	ColGroup       = "Group"
	ColDestination = "Destination"
	ColComments    = "Comments"
)

// MandatoryColumns must all be filled on the physical line that closes a
// logical row.
var MandatoryColumns = []string{ColTime, ColVehicle, ColFrom, ColGroup, ColDestination}

var ErrMissingColumn = errors.New("header is missing a mandatory column")

// ErrTruncated marks a section that stopped reading partway through. The rows
// rebuilt before the failure are still returned.
var ErrTruncated = errors.New("section truncated")

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// ReconstructRows reads one section (header line first) and merges wrapped
// continuation lines back into logical rows.
//
// The converter splits long cells over several physical lines and leaves the
// other columns blank on the extra lines. Lines are buffered until one has
// every mandatory column filled; the buffer is then joined column by column
// with single spaces. Whatever is still buffered at the end of the section
// never closed and is discarded.
func ReconstructRows(section string) ([]Row, error) {
	return reconstructRows(strings.NewReader(section))
}

func reconstructRows(src io.Reader) ([]Row, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if missing := missingColumns(header); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	var rows []Row
	var buffer []Row
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("%w: read row: %w", ErrTruncated, err)
		}

		line := physicalRow(header, fields)
		buffer = append(buffer, line)
		if !complete(line) {
			continue
		}
		rows = append(rows, mergeRows(header, buffer))
		buffer = nil
	}

	return rows, nil
}

func missingColumns(header []string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	var missing []string
	for _, col := range MandatoryColumns {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// physicalRow maps fields onto the header. Short lines are padded with empty
// cells; cells past the last header are ignored.
func physicalRow(header, fields []string) Row {
	row := make(Row, len(header))
	for i, col := range header {
		if i < len(fields) {
			row[col] = fields[i]
		} else {
			row[col] = ""
		}
	}
	return row
}

func complete(row Row) bool {
	for _, col := range MandatoryColumns {
		if row[col] == "" {
			return false
		}
	}
	return true
}

func mergeRows(header []string, buffer []Row) Row {
	merged := make(Row, len(header))
	parts := make([]string, len(buffer))
	for _, col := range header {
		for i, line := range buffer {
			parts[i] = line[col]
		}
		merged[col] = newlineReplacer.Replace(strings.Join(parts, " "))
	}
	return merged
}
