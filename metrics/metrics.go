// Package metrics exports what engines report through Engine.Stats
// as Prometheus collectors.
package metrics

import (
	"io"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/clarete/combi"
)

const MetricsSubsystem = "engine"

// Metrics contains the collectors fed by Observe.  Counters add up
// across matches while gauges hold the values of the last one.
type Metrics struct {
	// Number of matches, labeled by outcome.
	Matches *prometheus.CounterVec
	// Number of matcher invocations.
	Captures prometheus.Counter
	// Cache lookups that found a usable entry.
	CacheHits prometheus.Counter
	// Cache lookups that did not.
	CacheMisses prometheus.Counter
	// Entries written to the cache.
	CacheStores prometheus.Counter
	// Left recursive re-entries failed to find a seed.
	Deferrals prometheus.Counter
	// Iterations of the seed growing loop.
	Growths prometheus.Counter
	// Atomic matchers that did not match.
	Failures prometheus.Counter
	// Histogram of records emitted per match.
	Records prometheus.Histogram
	// Deepest matcher stack of the last match.
	MaxDepth prometheus.Gauge
	// Cache hit ratio of the last match.
	HitRatio prometheus.Gauge

	registry *prometheus.Registry
}

// PrometheusMetrics returns Metrics registered in a registry of
// their own, so creating more than one never conflicts.
func PrometheusMetrics(namespace string) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      name,
			Help:      help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      name,
			Help:      help,
		})
	}
	m := &Metrics{
		Matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "matches_total",
			Help:      "Number of matches, by outcome.",
		}, []string{"outcome"}),
		Captures:    counter("captures_total", "Number of matcher invocations."),
		CacheHits:   counter("cache_hits_total", "Cache lookups that found a usable entry."),
		CacheMisses: counter("cache_misses_total", "Cache lookups that found nothing usable."),
		CacheStores: counter("cache_stores_total", "Entries written to the cache."),
		Deferrals:   counter("deferrals_total", "Left recursive re-entries failed to find a seed."),
		Growths:     counter("growths_total", "Iterations of the seed growing loop."),
		Failures:    counter("failures_total", "Atomic matchers that did not match."),
		Records: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "records",
			Help:      "Records emitted per match.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		MaxDepth: gauge("max_depth", "Deepest matcher stack of the last match."),
		HitRatio: gauge("cache_hit_ratio", "Cache hit ratio of the last match."),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.Matches,
		m.Captures,
		m.CacheHits,
		m.CacheMisses,
		m.CacheStores,
		m.Deferrals,
		m.Growths,
		m.Failures,
		m.Records,
		m.MaxDepth,
		m.HitRatio,
	)
	return m
}

// Observe adds the statistics of one match.  `err` is the error the
// match returned and only decides the outcome label.
func (m *Metrics) Observe(s combi.Stats, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.Matches.WithLabelValues(outcome).Inc()
	m.Captures.Add(float64(s.Captures))
	m.CacheHits.Add(float64(s.CacheHits))
	m.CacheMisses.Add(float64(s.CacheMisses))
	m.CacheStores.Add(float64(s.CacheStores))
	m.Deferrals.Add(float64(s.Deferrals))
	m.Growths.Add(float64(s.Growths))
	m.Failures.Add(float64(s.Failures))
	m.Records.Observe(float64(s.Records))
	m.MaxDepth.Set(float64(s.MaxDepth))
	m.HitRatio.Set(s.HitRatio())
}

// Match runs `matcher` with `e` and observes the outcome.
func (m *Metrics) Match(e *combi.Engine, matcher *combi.Matcher, input string) ([]combi.Record, error) {
	records, err := e.Match(matcher, input)
	m.Observe(e.Stats(), err)
	return records, err
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteText writes every collector in the Prometheus text exposition
// format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return errors.Wrapf(err, "encoding %s", mf.GetName())
		}
	}
	return nil
}
