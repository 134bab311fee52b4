// Package metrics exposes Prometheus collectors for the download pipeline.
// Collectors live on their own registry; nothing touches the default one.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ytget/yt-bot/internal/model"
)

// Namespace prefixes every metric name
const Namespace = "ytbot"

// Path is where the handler is mounted
const Path = "/metrics"

const shutdownTimeout = 5 * time.Second

// Metrics holds the pipeline collectors
type Metrics struct {
	registry *prometheus.Registry

	jobsTotal       *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	jobsInFlight    prometheus.Gauge
	queueDepth      prometheus.Gauge
	progressUpdates prometheus.Counter
	deliveries      *prometheus.CounterVec
	artifactBytes   prometheus.Histogram
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "jobs_total",
			Help:      "Jobs that reached a terminal state, by state.",
		}, []string{"state"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time from worker pickup to terminal state.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		}, []string{"state"}),
		jobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "jobs_in_flight",
			Help:      "Jobs currently owned by a worker.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "queue_depth",
			Help:      "Admitted jobs waiting for a worker.",
		}),
		progressUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "progress_updates_total",
			Help:      "Progress edits forwarded to chats after throttling.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "deliveries_total",
			Help:      "Successful deliveries by method.",
		}, []string{"method"}),
		artifactBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "artifact_size_bytes",
			Help:      "Size of produced artifacts.",
			Buckets:   prometheus.ExponentialBuckets(1<<20, 4, 7),
		}),
	}

	m.registry.MustRegister(
		m.jobsTotal,
		m.jobDuration,
		m.jobsInFlight,
		m.queueDepth,
		m.progressUpdates,
		m.deliveries,
		m.artifactBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// JobStarted marks a job as picked up by a worker
func (m *Metrics) JobStarted() {
	m.jobsInFlight.Inc()
}

// JobFinished records the terminal state of a job a worker owned
func (m *Metrics) JobFinished(state model.JobState, d time.Duration) {
	m.jobsInFlight.Dec()
	m.jobsTotal.WithLabelValues(state.String()).Inc()
	m.jobDuration.WithLabelValues(state.String()).Observe(d.Seconds())
}

// JobRejected records a job that never reached a worker
func (m *Metrics) JobRejected() {
	m.jobsTotal.WithLabelValues(model.JobStateRejected.String()).Inc()
}

// SetQueueDepth reports the number of queued jobs
func (m *Metrics) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// ProgressUpdate counts one forwarded progress edit
func (m *Metrics) ProgressUpdate() {
	m.progressUpdates.Inc()
}

// Delivered counts a successful delivery by method and records the artifact size
func (m *Metrics) Delivered(method string, size int64) {
	m.deliveries.WithLabelValues(method).Inc()
	if size > 0 {
		m.artifactBytes.Observe(float64(size))
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve listens on addr until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(Path, m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics listener started", "addr", addr, "path", Path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
