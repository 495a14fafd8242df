package parse

import "sort"

// SortRecords orders records by departure time. Records departing at the
// same instant keep the order they were read in.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].DepartureTime.Before(records[j].DepartureTime)
	})
}

// Dedupe drops repeated natural keys, keeping the first occurrence, and
// reports how many copies were dropped.
func Dedupe(records []Record) ([]Record, int) {
	seen := make(map[Key]struct{}, len(records))
	out := records[:0]
	dropped := 0
	for _, r := range records {
		k := r.Key()
		if _, ok := seen[k]; ok {
			dropped++
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out, dropped
}
