// Package metrics exposes Prometheus collectors for analysis runs.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fareview"

// Metrics records pipeline activity. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	analyses      *prometheus.CounterVec
	warnings      *prometheus.CounterVec
	totalScore    prometheus.Histogram
	tokens        *prometheus.CounterVec
	inFlight      prometheus.Gauge
}

// MustNewMetrics registers the collectors with reg (the default registerer
// when nil). Collectors already registered under the same names are reused.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each analysis stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"stage", "status"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_failures_total",
			Help:      "Analyses that failed, by stage and error kind.",
		}, []string{"stage", "reason"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "analyses_total",
			Help:      "Completed analyses by grade.",
		}, []string{"grade"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "consistency_warnings_total",
			Help:      "Consistency warnings raised while validating evaluator output.",
		}, []string{"kind"}),
		totalScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "total_score",
			Help:      "Distribution of total scores.",
			Buckets:   []float64{50, 60, 70, 80, 90, 100},
		}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "tokens_total",
			Help:      "Tokens consumed by the scoring service.",
		}, []string{"provider", "direction"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "analyses_in_flight",
			Help:      "Analyses currently running.",
		}),
	}

	m.stageDuration = register(reg, m.stageDuration)
	m.stageFailures = register(reg, m.stageFailures)
	m.analyses = register(reg, m.analyses)
	m.warnings = register(reg, m.warnings)
	m.totalScore = register(reg, m.totalScore)
	m.tokens = register(reg, m.tokens)
	m.inFlight = register(reg, m.inFlight)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveStage records the time spent in a stage.
func (m *Metrics) ObserveStage(stage, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage, status).Observe(d.Seconds())
}

// IncFailure counts a failed analysis.
func (m *Metrics) IncFailure(stage, reason string) {
	if m == nil {
		return
	}
	m.stageFailures.WithLabelValues(stage, reason).Inc()
}

// ObserveResult counts a completed analysis and its score.
func (m *Metrics) ObserveResult(grade string, total float64) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(grade).Inc()
	m.totalScore.Observe(total)
}

// IncWarning counts a consistency warning.
func (m *Metrics) IncWarning(kind string) {
	if m == nil {
		return
	}
	m.warnings.WithLabelValues(kind).Inc()
}

// AddTokens records scoring token usage.
func (m *Metrics) AddTokens(provider string, input, output int) {
	if m == nil {
		return
	}
	m.tokens.WithLabelValues(provider, "input").Add(float64(input))
	m.tokens.WithLabelValues(provider, "output").Add(float64(output))
}

// Started marks an analysis as running and returns a func that ends it.
func (m *Metrics) Started() func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}
