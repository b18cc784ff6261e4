package sampler

// Metrics are registered once per process. Counters and the tracked gauge
// sum over every Sampler in the process, so several monitors add up instead
// of overwriting each other.

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pidwatch_sampler_passes_total",
		Help: "Number of completed sampling passes.",
	})

	metricPruned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pidwatch_sampler_pruned_total",
		Help: "Entries removed by sampling passes, by reason.",
	}, []string{"reason"})

	metricPassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pidwatch_sampler_pass_duration_seconds",
		Help:    "Wall time of one sampling pass, lock held throughout.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	metricTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pidwatch_tracked_processes",
		Help: "Entries kept by the latest pass of each running sampler, summed over samplers.",
	})
)
