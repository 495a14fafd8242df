package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Archive subdirectories, one per artefact kind.
const (
	archiveEmail = "email"
	archivePDF   = "pdf"
	archiveCSV   = "csv"
)

// Archive keeps the raw artefacts of every ingestion under Dir. An empty Dir
// disables it.
type Archive struct {
	Dir string
}

// Stem names one ingestion's artefacts: the email's send time when known,
// then a short random suffix so two uploads in one second do not collide.
func Stem(sent time.Time) string {
	id := uuid.NewString()[:8]
	if sent.IsZero() {
		return id
	}
	return strconv.FormatInt(sent.Unix(), 10) + "-" + id
}

// Save writes data to Dir/kind/stem.ext and returns the path.
func (a Archive) Save(kind, stem, ext string, data []byte) (string, error) {
	if a.Dir == "" {
		return "", nil
	}
	dir := filepath.Join(a.Dir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	path := filepath.Join(dir, stem+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("archive %s: %w", kind, err)
	}
	return path, nil
}

// Enabled reports whether artefacts are kept.
func (a Archive) Enabled() bool {
	return a.Dir != ""
}
