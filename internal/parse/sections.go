package parse

import (
	"regexp"
	"strings"
)

// HeaderToken is the first printed column header of every day table.
const HeaderToken = "Time"

var sectionStartRe = regexp.MustCompile(`(?m)^` + HeaderToken)

// SplitSections cuts a converted document into its per-day tables. A table
// starts wherever a line begins with the Time header. Text before the first
// header is page furniture and is dropped, as are sections that are blank
// after trimming.
func SplitSections(raw string) []Section {
	starts := sectionStartRe.FindAllStringIndex(raw, -1)
	if len(starts) == 0 {
		return nil
	}

	var sections []Section
	for i, loc := range starts {
		end := len(raw)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		text := strings.TrimSpace(raw[loc[0]:end])
		if text == "" {
			continue
		}
		sections = append(sections, Section{Index: len(sections), Text: text})
	}
	return sections
}
