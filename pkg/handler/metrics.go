package handler

// Process-wide counters, summed over every Handler.

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pidwatch_writes_total",
		Help: "Write requests by result.",
	}, []string{"result"})

	metricReads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pidwatch_reads_total",
		Help: "Snapshot renders served.",
	})

	metricTruncated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pidwatch_reads_truncated_total",
		Help: "Snapshot renders cut short by the caller's buffer size.",
	})
)
