// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package verifier

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "ipsleuth"
	subsystem = "verifier"
)

var (
	lookupsTotal   *prometheus.CounterVec
	lookupDuration prometheus.Histogram
	runsTotal      *prometheus.CounterVec
	running        prometheus.Gauge
	metricsOnce    sync.Once
)

// initMetrics creates and registers the verifier metrics exactly once. Tests
// get their own registry so that parallel test binaries never collide.
func initMetrics() {
	metricsOnce.Do(func() {
		var registry prometheus.Registerer = prometheus.DefaultRegisterer
		if testing.Testing() {
			registry = prometheus.NewRegistry()
		}

		lookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "lookups_total",
			Help:      "Total number of address lookups by outcome.",
		}, []string{"outcome"})

		lookupDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "lookup_duration_seconds",
			Help:      "Duration of single address lookups.",
			Buckets:   prometheus.DefBuckets,
		})

		runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "runs_total",
			Help:      "Total number of finished runs by result.",
		}, []string{"result"})

		running = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "running",
			Help:      "Number of runs currently being processed.",
		})

		registry.MustRegister(lookupsTotal, lookupDuration, runsTotal, running)
	})
}
