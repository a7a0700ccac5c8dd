package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	FilesNormalized prometheus.Counter
	FilesFailed     prometheus.Counter
	BatchSize       prometheus.Histogram
	IngestDuration  *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
	Thumbnails      *prometheus.CounterVec
	OutboxEvents    *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		FilesNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_files_normalized_total",
			Help:      "Uploaded files that passed normalization.",
		}),
		FilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_files_failed_total",
			Help:      "Uploaded files excluded from a batch.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_batch_size",
			Help:      "Image records per bulk write.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32},
		}),
		IngestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Duration of ingestion calls by result.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_cache_lookups_total",
			Help:      "Listing cache lookups by result (hit, miss, stale, error).",
		}, []string{"result"}),
		Thumbnails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thumbnails_total",
			Help:      "Thumbnail jobs by result.",
		}, []string{"result"}),
		OutboxEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_total",
			Help:      "Outbox events sent by the relay by result (published, retried).",
		}, []string{"result"}),
	}

	registry.MustRegister(
		m.FilesNormalized,
		m.FilesFailed,
		m.BatchSize,
		m.IngestDuration,
		m.CacheLookups,
		m.Thumbnails,
		m.OutboxEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}
