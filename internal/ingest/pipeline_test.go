package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/convert"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/index"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/mailbox"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/metrics"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/parse"
)

const scheduleName = "Transport Schedule 150124.pdf"

const scheduleCSV = `Transport Schedule w/c 15 January
Time,Vehicle,From,Group,Destination,Comments
0830,Bus 1,SMC,Y7,MES,
0845,Bus 2,MES,Y8,SMC,Late
Time,Vehicle,From,Group,Destination,Comments
0900,Bus 1,SMC,Y9,MES,
tbc,Bus 3,SMC,Y9,MES,
`

var pdfData = []byte("%PDF-1.4 schedule")

type fixture struct {
	db       *index.DB
	reg      *prometheus.Registry
	archive  string
	pipeline *Pipeline
	calls    int
}

func newFixture(t *testing.T, conv func(ctx context.Context, path string) (string, error)) *fixture {
	t.Helper()
	dir := t.TempDir()
	db, err := index.OpenDB(filepath.Join(dir, "timetable.db"), time.UTC)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{db: db, reg: prometheus.NewRegistry(), archive: filepath.Join(dir, "data")}
	m, err := metrics.NewIngest(f.reg)
	require.NoError(t, err)

	if conv == nil {
		conv = func(context.Context, string) (string, error) { return scheduleCSV, nil }
	}
	p, err := New(Options{
		DB: db,
		Converter: convert.Func(func(ctx context.Context, path string) (string, error) {
			f.calls++
			return conv(ctx, path)
		}),
		Archive:          Archive{Dir: f.archive},
		AttachmentPrefix: "Transport Schedule",
		Logger:           zerolog.Nop(),
		Metrics:          m,
	})
	require.NoError(t, err)
	f.pipeline = p
	return f
}

func (f *fixture) count(t *testing.T) int {
	t.Helper()
	n, err := f.db.Count(context.Background())
	require.NoError(t, err)
	return n
}

func (f *fixture) archived(t *testing.T, kind string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(f.archive, kind))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestIngestDocument(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	stats, err := f.pipeline.IngestDocument(ctx, Document{Filename: scheduleName, Text: scheduleCSV})
	require.NoError(t, err)
	assert.Equal(t, Stats{Sections: 2, Rows: 4, Accepted: 3, Invalid: 1}, stats)
	assert.Equal(t, "3 bus records added (⚠️ 1 invalid records ignored)", stats.Message())
	assert.Equal(t, 3, f.count(t))

	got, err := f.db.Upcoming(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].DepartureTime.Equal(time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)))
	assert.Equal(t, "Late", got[1].Comments)
	assert.True(t, got[2].DepartureTime.Equal(time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)))
}

func TestIngestDocument_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	doc := Document{Filename: scheduleName, Text: scheduleCSV}

	_, err := f.pipeline.IngestDocument(ctx, doc)
	require.NoError(t, err)
	stats, err := f.pipeline.IngestDocument(ctx, doc)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Accepted)
	assert.Equal(t, 3, stats.Duplicates)
	assert.Equal(t, 4, stats.Rejected())
	assert.Equal(t, "0 bus records added (⚠️ 4 invalid records ignored)", stats.Message())
	assert.Equal(t, 3, f.count(t))
}

func TestIngestDocument_BadDateToken(t *testing.T) {
	f := newFixture(t, nil)
	for _, name := range []string{"Transport Schedule.pdf", "Schedule 150124 220124.pdf", "Schedule 310224.pdf"} {
		stats, err := f.pipeline.IngestDocument(context.Background(), Document{Filename: name, Text: scheduleCSV})
		assert.ErrorIs(t, err, parse.ErrDateToken, name)
		assert.Equal(t, Stats{}, stats)
	}
	assert.Equal(t, 0, f.count(t))
}

func TestIngestDocument_NoSections(t *testing.T) {
	f := newFixture(t, nil)
	stats, err := f.pipeline.IngestDocument(context.Background(), Document{Filename: scheduleName, Text: "nothing useful"})
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, "0 bus records added", stats.Message())
}

func TestIngestPDF_ArchivesAndConverts(t *testing.T) {
	var seen []byte
	f := newFixture(t, func(_ context.Context, path string) (string, error) {
		var err error
		seen, err = os.ReadFile(path)
		return scheduleCSV, err
	})

	stats, err := f.pipeline.IngestPDF(context.Background(), scheduleName, pdfData)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Accepted)
	assert.Equal(t, pdfData, seen)
	assert.Len(t, f.archived(t, archivePDF), 1)
	csvs := f.archived(t, archiveCSV)
	require.Len(t, csvs, 1)

	body, err := os.ReadFile(filepath.Join(f.archive, archiveCSV, csvs[0]))
	require.NoError(t, err)
	assert.Equal(t, scheduleCSV, string(body))
}

func TestIngestPDF_WithoutArchive(t *testing.T) {
	f := newFixture(t, nil)
	f.pipeline.opts.Archive = Archive{}
	var tmp string
	f.pipeline.opts.Converter = convert.Func(func(_ context.Context, path string) (string, error) {
		tmp = path
		return scheduleCSV, nil
	})

	_, err := f.pipeline.IngestPDF(context.Background(), scheduleName, pdfData)
	require.NoError(t, err)
	_, err = os.Stat(tmp)
	assert.True(t, os.IsNotExist(err), "temporary pdf removed")
}

func TestIngestPDF_BadDateSkipsConversion(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.pipeline.IngestPDF(context.Background(), "Transport Schedule.pdf", pdfData)
	assert.ErrorIs(t, err, parse.ErrDateToken)
	assert.Zero(t, f.calls)
	assert.Empty(t, f.archived(t, archivePDF))
}

func TestIngestPDF_ConverterFailure(t *testing.T) {
	f := newFixture(t, func(context.Context, string) (string, error) {
		return "", errors.New("tabula exploded")
	})
	stats, err := f.pipeline.IngestPDF(context.Background(), scheduleName, pdfData)
	assert.ErrorContains(t, err, "tabula exploded")
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, 0, f.count(t))

	expected := `
# HELP timetable_documents_total Schedule documents processed, by outcome
# TYPE timetable_documents_total counter
timetable_documents_total{outcome="failed"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(expected), "timetable_documents_total"))
}

func rawEmail(attachmentName string) []byte {
	return []byte("From: transport@example.com\r\n" +
		"Subject: Bus times\r\n" +
		"Date: Mon, 15 Jan 2024 09:12:00 +0000\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"b1\"\r\n\r\n" +
		"--b1\r\n" +
		"Content-Type: text/plain\r\n\r\n" +
		"Attached.\r\n" +
		"--b1\r\n" +
		"Content-Type: application/pdf\r\n" +
		"Content-Disposition: attachment; filename=\"" + attachmentName + "\"\r\n" +
		"Content-Transfer-Encoding: base64\r\n\r\n" +
		base64.StdEncoding.EncodeToString(pdfData) + "\r\n" +
		"--b1--\r\n")
}

func TestIngestEmail(t *testing.T) {
	f := newFixture(t, nil)
	stats, err := f.pipeline.IngestEmail(context.Background(), rawEmail(scheduleName))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Accepted)

	emails := f.archived(t, archiveEmail)
	require.Len(t, emails, 1)
	assert.True(t, strings.HasPrefix(emails[0], "1705309920-"), emails[0])
	pdfs := f.archived(t, archivePDF)
	require.Len(t, pdfs, 1)
	assert.Equal(t, strings.TrimSuffix(emails[0], ".eml"), strings.TrimSuffix(pdfs[0], ".pdf"))

	expected := `
# HELP timetable_records_total Timetable rows seen during ingestion, by result
# TYPE timetable_records_total counter
timetable_records_total{result="accepted"} 3
timetable_records_total{result="duplicate"} 0
timetable_records_total{result="invalid"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(expected), "timetable_records_total"))
}

func TestIngestEmail_NoAttachment(t *testing.T) {
	f := newFixture(t, nil)
	stats, err := f.pipeline.IngestEmail(context.Background(), rawEmail("Minutes 150124.pdf"))
	assert.ErrorIs(t, err, mailbox.ErrNoAttachment)
	assert.Equal(t, Stats{}, stats)
	assert.Zero(t, f.calls)
	assert.Len(t, f.archived(t, archiveEmail), 1)
	assert.Empty(t, f.archived(t, archivePDF))

	expected := `
# HELP timetable_documents_total Schedule documents processed, by outcome
# TYPE timetable_documents_total counter
timetable_documents_total{outcome="no_attachment"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(expected), "timetable_documents_total"))
}

func TestIngestInbox(t *testing.T) {
	f := newFixture(t, nil)
	inbox := t.TempDir()
	old := time.Now().Add(-time.Hour)
	write := func(name string, data []byte, mtime time.Time) {
		path := filepath.Join(inbox, name)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
	write("Transport Schedule 150124.csv", []byte(scheduleCSV), old)
	write("undated.csv", []byte(scheduleCSV), old.Add(time.Minute))
	write("mail.eml", rawEmail("Minutes.pdf"), old.Add(2*time.Minute))
	write("readme.md", []byte("ignored"), old)

	total, failed, err := f.pipeline.IngestInbox(context.Background(), inbox)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 3, total.Accepted)
	assert.Equal(t, 3, f.count(t))
}

func TestStats(t *testing.T) {
	s := Stats{Sections: 5, Rows: 10, Accepted: 1, Duplicates: 2, Invalid: 3, SkippedSections: 1}
	assert.Equal(t, 5, s.Rejected())
	assert.Equal(t, "1 bus record added (⚠️ 5 invalid records ignored)", s.Message())
	assert.Equal(t, "sections=5 rows=10 accepted=1 duplicates=2 invalid=3 skipped_sections=1", s.String())
}

func TestStem(t *testing.T) {
	sent := time.Date(2024, 1, 15, 9, 12, 0, 0, time.UTC)
	assert.Regexp(t, `^1705309920-[0-9a-f]{8}$`, Stem(sent))
	assert.Regexp(t, `^[0-9a-f]{8}$`, Stem(time.Time{}))
	assert.NotEqual(t, Stem(sent), Stem(sent))
}
