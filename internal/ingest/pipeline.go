// Package ingest drives a schedule from email or PDF through conversion,
// parsing and storage.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/convert"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/index"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/mailbox"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/metrics"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/parse"
	"github.com/ThatOtherAndrew/ESMSBusTimetable/internal/scan"
)

// Document is converted schedule text plus the source filename that dates
// it.
type Document struct {
	Filename string
	Text     string
}

type Options struct {
	DB        *index.DB
	Converter convert.Converter // required for PDF and email input
	Archive   Archive
	Location  *time.Location // nil uses the store's location
	// AttachmentPrefix selects the schedule among an email's PDFs.
	AttachmentPrefix string
	Logger           zerolog.Logger
	Metrics          *metrics.Ingest // nil disables metrics
}

type Pipeline struct {
	opts Options
}

func New(opts Options) (*Pipeline, error) {
	if opts.DB == nil {
		return nil, errors.New("ingest: no store")
	}
	if opts.Location == nil {
		opts.Location = opts.DB.Location()
	}
	return &Pipeline{opts: opts}, nil
}

// IngestDocument parses already-converted text and stores its records.
// A bad date token in the filename stores nothing.
func (p *Pipeline) IngestDocument(ctx context.Context, doc Document) (Stats, error) {
	start := time.Now()
	log := p.logger(doc.Filename)
	stats, err := p.ingestText(ctx, log, doc)
	p.observe(log, start, stats, err)
	return stats, err
}

// IngestPDF converts a schedule PDF and stores its records. filename must
// carry the week's date token.
func (p *Pipeline) IngestPDF(ctx context.Context, filename string, data []byte) (Stats, error) {
	start := time.Now()
	log := p.logger(filename)
	stats, err := p.ingestPDF(ctx, log, filename, data, Stem(time.Time{}))
	p.observe(log, start, stats, err)
	return stats, err
}

// IngestEmail archives a raw email, picks out its schedule attachment and
// ingests it. mailbox.ErrNoAttachment is returned, with zero stats, when the
// email carries no schedule.
func (p *Pipeline) IngestEmail(ctx context.Context, raw []byte) (Stats, error) {
	start := time.Now()
	log := p.logger("")
	stats, err := p.ingestEmail(ctx, log, raw)
	p.observe(log, start, stats, err)
	return stats, err
}

// IngestFile ingests one inbox artefact according to its kind.
func (p *Pipeline) IngestFile(ctx context.Context, fi scan.FileInfo) (Stats, error) {
	data, err := os.ReadFile(fi.Path)
	if err != nil {
		return Stats{}, fmt.Errorf("read %s: %w", fi.Path, err)
	}
	name := filepath.Base(fi.Path)
	switch fi.Kind {
	case scan.KindEmail:
		return p.IngestEmail(ctx, data)
	case scan.KindPDF:
		return p.IngestPDF(ctx, name, data)
	case scan.KindText:
		return p.IngestDocument(ctx, Document{Filename: name, Text: string(data)})
	}
	return Stats{}, fmt.Errorf("unsupported file %s", fi.Path)
}

// IngestInbox ingests every artefact under dir, oldest first. A failing file
// is logged and counted; the rest still run.
func (p *Pipeline) IngestInbox(ctx context.Context, dir string) (total Stats, failed int, err error) {
	files, err := scan.ScanInbox(dir)
	if err != nil {
		return total, 0, fmt.Errorf("scan: %w", err)
	}
	for _, fi := range files {
		if err := ctx.Err(); err != nil {
			return total, failed, err
		}
		stats, err := p.IngestFile(ctx, fi)
		total.add(stats)
		if err != nil && !errors.Is(err, mailbox.ErrNoAttachment) {
			failed++
		}
	}
	return total, failed, nil
}

func (p *Pipeline) ingestEmail(ctx context.Context, log zerolog.Logger, raw []byte) (Stats, error) {
	msg, att, err := mailbox.FindSchedule(raw, p.opts.AttachmentPrefix)
	if err != nil && msg == nil {
		return Stats{}, err
	}

	stem := Stem(msg.Date)
	if _, aerr := p.opts.Archive.Save(archiveEmail, stem, ".eml", raw); aerr != nil {
		return Stats{}, aerr
	}
	if err != nil {
		return Stats{}, err
	}

	log.Debug().Str("subject", msg.Subject).Str("attachment", att.Filename).Msg("schedule attachment found")
	return p.ingestPDF(ctx, log.With().Str("file", att.Filename).Logger(), att.Filename, att.Data, stem)
}

func (p *Pipeline) ingestPDF(ctx context.Context, log zerolog.Logger, filename string, data []byte, stem string) (Stats, error) {
	// Fail on the date token before paying for a conversion.
	if _, err := parse.WeekFromFilename(filename, p.opts.Location); err != nil {
		return Stats{}, err
	}
	if p.opts.Converter == nil {
		return Stats{}, fmt.Errorf("convert %s: %w", filename, convert.ErrNoCommand)
	}

	pdfPath, err := p.opts.Archive.Save(archivePDF, stem, ".pdf", data)
	if err != nil {
		return Stats{}, err
	}
	if pdfPath == "" {
		tmp, err := writeTemp(data)
		if err != nil {
			return Stats{}, err
		}
		defer os.Remove(tmp)
		pdfPath = tmp
	}

	text, err := p.opts.Converter.Convert(ctx, pdfPath)
	if err != nil {
		return Stats{}, fmt.Errorf("convert %s: %w", filename, err)
	}
	log.Debug().Int("bytes", len(text)).Msg("pdf converted")

	if _, err := p.opts.Archive.Save(archiveCSV, stem, ".csv", []byte(text)); err != nil {
		return Stats{}, err
	}
	return p.ingestText(ctx, log, Document{Filename: filename, Text: text})
}

func (p *Pipeline) ingestText(ctx context.Context, log zerolog.Logger, doc Document) (Stats, error) {
	result, err := parse.ParseSchedule(doc.Filename, doc.Text, p.opts.Location)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{
		Sections:        result.Sections,
		Rows:            result.Rows,
		Duplicates:      result.Duplicates,
		Invalid:         result.Invalid,
		SkippedSections: result.SkippedSections,
	}
	if result.SkippedSections > 0 {
		log.Warn().Int("skipped_sections", result.SkippedSections).Msg("tables without mandatory columns skipped")
	}
	if result.TruncatedSections > 0 {
		log.Warn().Int("truncated_sections", result.TruncatedSections).Msg("tables cut short, earlier rows kept")
	}

	accepted, rejected, err := p.opts.DB.InsertBatch(ctx, result.Records)
	stats.Accepted = accepted
	stats.Duplicates += rejected
	if err != nil {
		return stats, fmt.Errorf("store: %w", err)
	}
	return stats, nil
}

func (p *Pipeline) logger(filename string) zerolog.Logger {
	ctx := p.opts.Logger.With().Str("ingest_id", uuid.NewString())
	if filename != "" {
		ctx = ctx.Str("file", filename)
	}
	return ctx.Logger()
}

func (p *Pipeline) observe(log zerolog.Logger, start time.Time, stats Stats, err error) {
	elapsed := time.Since(start).Seconds()
	switch {
	case errors.Is(err, mailbox.ErrNoAttachment):
		p.opts.Metrics.Document(metrics.OutcomeNoAttachment, elapsed)
		log.Info().Msg("email without schedule attachment")
		return
	case err != nil:
		p.opts.Metrics.Document(metrics.OutcomeFailed, elapsed)
		p.opts.Metrics.Records(stats.Accepted, 0, 0)
		log.Error().Err(err).Str("stats", stats.String()).Msg("ingest failed")
		return
	}
	p.opts.Metrics.Document(metrics.OutcomeIngested, elapsed)
	p.opts.Metrics.Records(stats.Accepted, stats.Duplicates, stats.Invalid)
	log.Info().
		Int("sections", stats.Sections).
		Int("accepted", stats.Accepted).
		Int("duplicates", stats.Duplicates).
		Int("invalid", stats.Invalid).
		Dur("took", time.Since(start)).
		Msg("document ingested")
}

func writeTemp(data []byte) (string, error) {
	f, err := os.CreateTemp("", "timetable-*.pdf")
	if err != nil {
		return "", fmt.Errorf("temp pdf: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("temp pdf: %w", err)
	}
	return f.Name(), f.Close()
}
