/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metrics.go
Description: Run metrics for the MARC classifier. Named phases are timed with
stopwatches whose durations feed a Prometheus histogram; rule list sizes and
classification outcomes are tracked as gauges and counters. Every run owns a
private registry that can be written out as a node-exporter textfile.
*/

package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Phase names a timed stage of a run
type Phase string

const (
	PhaseLoad     Phase = "load"
	PhaseExtend   Phase = "extend"
	PhasePrune    Phase = "prune"
	PhaseAnnotate Phase = "annotate"
	PhaseClassify Phase = "classify"
)

// PhaseTiming is the accumulated duration of one phase
type PhaseTiming struct {
	Phase    Phase         `json:"phase"`
	Duration time.Duration `json:"duration"`
}

// Metrics collects the timings and counters of one run
type Metrics struct {
	registry *prometheus.Registry

	phaseDuration *prometheus.HistogramVec
	rules         *prometheus.GaugeVec
	transactions  *prometheus.CounterVec

	mu        sync.Mutex
	order     []Phase
	durations map[Phase]time.Duration
}

// NewMetrics creates the collectors of a run labelled with its id
func NewMetrics(runID string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	constLabels := prometheus.Labels{"run_id": runID}

	return &Metrics{
		registry: registry,
		phaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "marc",
			Name:        "phase_duration_seconds",
			Help:        "Duration of a processing phase in seconds",
			Buckets:     []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120, 600},
			ConstLabels: constLabels,
		}, []string{"phase"}),
		rules: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "marc",
			Name:        "rules",
			Help:        "Number of rules after a pipeline stage",
			ConstLabels: constLabels,
		}, []string{"stage"}),
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "marc",
			Name:        "classified_transactions_total",
			Help:        "Classified transactions by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		durations: make(map[Phase]time.Duration),
	}
}

// Stopwatch times one execution of a phase
type Stopwatch struct {
	metrics *Metrics
	phase   Phase
	start   time.Time
	once    sync.Once
	elapsed time.Duration
}

// Start begins timing a phase
func (m *Metrics) Start(phase Phase) *Stopwatch {
	return &Stopwatch{metrics: m, phase: phase, start: time.Now()}
}

// Stop records the elapsed time. Further calls return the first measurement.
func (s *Stopwatch) Stop() time.Duration {
	s.once.Do(func() {
		s.elapsed = time.Since(s.start)
		s.metrics.Observe(s.phase, s.elapsed)
	})
	return s.elapsed
}

// Observe adds a measured duration to a phase
func (m *Metrics) Observe(phase Phase, d time.Duration) {
	m.phaseDuration.WithLabelValues(string(phase)).Observe(d.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.durations[phase]; !ok {
		m.order = append(m.order, phase)
	}
	m.durations[phase] += d
}

// Duration returns the accumulated time of a phase
func (m *Metrics) Duration(phase Phase) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.durations[phase]
}

// Timings returns the phases in the order they were first observed
func (m *Metrics) Timings() []PhaseTiming {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PhaseTiming, 0, len(m.order))
	for _, p := range m.order {
		out = append(out, PhaseTiming{Phase: p, Duration: m.durations[p]})
	}
	return out
}

// SetRules records the rule count after a stage
func (m *Metrics) SetRules(stage string, n int) {
	m.rules.WithLabelValues(stage).Set(float64(n))
}

// AddTransactions counts classified transactions for an outcome
func (m *Metrics) AddTransactions(outcome string, n int) {
	if n <= 0 {
		return
	}
	m.transactions.WithLabelValues(outcome).Add(float64(n))
}

// Registry exposes the private registry
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes the collected metrics in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
