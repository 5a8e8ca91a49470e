// Package metrics collects pipeline counters and optionally exposes them
// over HTTP for Prometheus scraping.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chemforge/molpipe/internal/infrastructure/logging"
)

var (
	parseDurationBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25}
	buildDurationBuckets = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800}
)

// PipelineMetrics holds the pipeline's Prometheus collectors.
type PipelineMetrics struct {
	registry *prometheus.Registry

	RecordsParsed   prometheus.Counter
	RecordsSkipped  *prometheus.CounterVec
	ParseDuration   prometheus.Histogram
	AugmentDuration prometheus.Histogram
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	BuildDuration   prometheus.Histogram
	DatasetRows     *prometheus.GaugeVec
	ExportBytes     *prometheus.CounterVec
	EventsDropped   prometheus.Counter
}

// New registers all pipeline metrics on a fresh registry.
func New(namespace string) *PipelineMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &PipelineMetrics{
		registry: registry,
		RecordsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_parsed_total",
			Help:      "Structure files parsed successfully.",
		}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Structure files skipped, by error code.",
		}, []string{"reason"}),
		ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Per-file parse duration.",
			Buckets:   parseDurationBuckets,
		}),
		AugmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "augment_duration_seconds",
			Help:      "Per-record descriptor computation duration.",
			Buckets:   parseDurationBuckets,
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "descriptor_cache_hits_total",
			Help:      "Descriptor cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "descriptor_cache_misses_total",
			Help:      "Descriptor cache misses.",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "End-to-end dataset build duration.",
			Buckets:   buildDurationBuckets,
		}),
		DatasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the most recent dataset build.",
		}, []string{"dataset"}),
		ExportBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_bytes_total",
			Help:      "Bytes written per export target.",
		}, []string{"target"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Pipeline events that could not be published.",
		}),
	}

	registry.MustRegister(
		m.RecordsParsed,
		m.RecordsSkipped,
		m.ParseDuration,
		m.AugmentDuration,
		m.CacheHits,
		m.CacheMisses,
		m.BuildDuration,
		m.DatasetRows,
		m.ExportBytes,
		m.EventsDropped,
	)
	return m
}

// Registry exposes the underlying registry, used by tests and the listener.
func (m *PipelineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Serve starts the scrape endpoint on addr and blocks until ctx is done.
// A batch run is short-lived, so the listener is optional; most runs rely
// on the final log summary instead.
func (m *PipelineMetrics) Serve(ctx context.Context, addr string, logger logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", logging.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
