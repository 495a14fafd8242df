package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for documents.
const (
	OutcomeIngested     = "ingested"
	OutcomeNoAttachment = "no_attachment"
	OutcomeFailed       = "failed"
)

// Ingest records what the ingestion pipeline did.
type Ingest struct {
	documents *prometheus.CounterVec
	records   *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewIngest registers the ingestion collectors on reg, or on the default
// registerer when reg is nil. Collectors that are already registered are
// reused.
func NewIngest(reg prometheus.Registerer) (*Ingest, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	documents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_documents_total",
		Help: "Schedule documents processed, by outcome",
	}, []string{"outcome"})
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_records_total",
		Help: "Timetable rows seen during ingestion, by result",
	}, []string{"result"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_ingest_duration_seconds",
		Help:    "Time spent ingesting one document",
		Buckets: prometheus.DefBuckets,
	})

	var err error
	if documents, err = register(reg, documents); err != nil {
		return nil, err
	}
	if records, err = register(reg, records); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Ingest{documents: documents, records: records, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Document counts one processed document.
func (m *Ingest) Document(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(outcome).Inc()
	m.duration.Observe(seconds)
}

// Records adds per-row results from one document.
func (m *Ingest) Records(accepted, duplicate, invalid int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues("accepted").Add(float64(accepted))
	m.records.WithLabelValues("duplicate").Add(float64(duplicate))
	m.records.WithLabelValues("invalid").Add(float64(invalid))
}
