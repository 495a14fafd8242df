package ingest

import "fmt"

// Stats summarises one ingested document.
type Stats struct {
	Sections        int
	Rows            int
	Accepted        int
	Duplicates      int // within the document or already stored
	Invalid         int // rows without a usable departure clock
	SkippedSections int
}

// Rejected counts rows that were read but not stored.
func (s Stats) Rejected() int {
	return s.Duplicates + s.Invalid
}

func (s Stats) String() string {
	return fmt.Sprintf("sections=%d rows=%d accepted=%d duplicates=%d invalid=%d skipped_sections=%d",
		s.Sections, s.Rows, s.Accepted, s.Duplicates, s.Invalid, s.SkippedSections)
}

// Message is the status line shown to whoever uploaded the schedule.
func (s Stats) Message() string {
	plural := "s"
	if s.Accepted == 1 {
		plural = ""
	}
	msg := fmt.Sprintf("%d bus record%s added", s.Accepted, plural)
	if n := s.Rejected(); n > 0 {
		msg += fmt.Sprintf(" (⚠️ %d invalid records ignored)", n)
	}
	return msg
}

func (s *Stats) add(o Stats) {
	s.Sections += o.Sections
	s.Rows += o.Rows
	s.Accepted += o.Accepted
	s.Duplicates += o.Duplicates
	s.Invalid += o.Invalid
	s.SkippedSections += o.SkippedSections
}
