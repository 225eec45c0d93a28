package meshing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the meshing controller. A nil
// *Metrics records nothing.
type Metrics struct {
	passes          *prometheus.CounterVec
	passDuration    *prometheus.HistogramVec
	precompute      prometheus.Histogram
	chunksMeshed    *prometheus.CounterVec
	quadsEmitted    *prometheus.CounterVec
	workers         prometheus.Gauge
	workerFailures  prometheus.Counter
	boundaryEntries prometheus.Gauge
}

// Pass outcomes used as the outcome label.
const (
	outcomeDone   = "done"
	outcomeFailed = "failed"
)

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxmesh",
			Name:      "passes_total",
			Help:      "Mesh generation passes by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voxmesh",
			Name:      "pass_duration_seconds",
			Help:      "Wall time from dispatch to the last worker report.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"strategy"}),
		precompute: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxmesh",
			Name:      "precompute_duration_seconds",
			Help:      "Time spent building the boundary cache.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		chunksMeshed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxmesh",
			Name:      "chunks_meshed_total",
			Help:      "Chunks meshed by strategy.",
		}, []string{"strategy"}),
		quadsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxmesh",
			Name:      "quads_emitted_total",
			Help:      "Quads emitted by strategy.",
		}, []string{"strategy"}),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxmesh",
			Name:      "workers",
			Help:      "Workers dispatched in the current pass.",
		}),
		workerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxmesh",
			Name:      "worker_failures_total",
			Help:      "Workers that reported an error or panicked.",
		}),
		boundaryEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxmesh",
			Name:      "boundary_cache_entries",
			Help:      "Entries in the last boundary cache.",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.passes, m.passDuration, m.precompute, m.chunksMeshed,
		m.quadsEmitted, m.workers, m.workerFailures, m.boundaryEntries,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observePrecompute(d time.Duration, entries int) {
	if m == nil {
		return
	}
	m.precompute.Observe(d.Seconds())
	m.boundaryEntries.Set(float64(entries))
}

func (m *Metrics) setWorkers(n int) {
	if m == nil {
		return
	}
	m.workers.Set(float64(n))
}

func (m *Metrics) observeReport(s Strategy, rep WorkerReport) {
	if m == nil {
		return
	}
	quads := 0
	for _, mesh := range rep.Meshes {
		quads += mesh.QuadCount()
	}
	m.chunksMeshed.WithLabelValues(s.String()).Add(float64(len(rep.Meshes)))
	m.quadsEmitted.WithLabelValues(s.String()).Add(float64(quads))
	if rep.Err != nil {
		m.workerFailures.Inc()
	}
}

func (m *Metrics) observePass(s Strategy, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(s.String(), outcome).Inc()
	if outcome == outcomeDone {
		m.passDuration.WithLabelValues(s.String()).Observe(d.Seconds())
	}
}
