package fsmsim

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for engine activity. Register
// one Metrics per process (or per registry in tests) and derive a
// per-engine observer from it with Observer.
type Metrics struct {
	steps       *prometheus.CounterVec
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	evalErrors  *prometheus.CounterVec
	resets      *prometheus.CounterVec
	stepSeconds *prometheus.HistogramVec
}

// NewMetrics registers the metric vectors with the given registerer. Pass
// prometheus.DefaultRegisterer outside of tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fsm_steps_total",
			Help: "Total number of engine steps processed.",
		}, []string{"engine"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fsm_transitions_total",
			Help: "Total number of fired transitions.",
		}, []string{"engine", "from", "to"}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fsm_no_transition_total",
			Help: "Total number of steps that found no eligible transition.",
		}, []string{"engine", "state"}),
		evalErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fsm_evaluation_errors_total",
			Help: "Total number of contained snippet evaluation failures.",
		}, []string{"engine", "kind"}),
		resets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fsm_resets_total",
			Help: "Total number of engine resets.",
		}, []string{"engine"}),
		stepSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fsm_step_duration_seconds",
			Help:    "Wall time of engine steps, including snippet evaluation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"engine"}),
	}
}

// Observer returns an observer that reports one engine's activity under
// the given engine label, usually the engine's ID
func (m *Metrics) Observer(engineID string) *MetricsObserver {
	return &MetricsObserver{metrics: m, engineID: engineID}
}

// MetricsObserver exports one engine's activity through a shared Metrics
type MetricsObserver struct {
	metrics  *Metrics
	engineID string

	stepStart time.Time
}

func (o *MetricsObserver) OnTransition(from string, to string, event string) {
	o.metrics.transitions.WithLabelValues(o.engineID, from, to).Inc()
	o.observeStep()
}

func (o *MetricsObserver) OnStateEnter(state string) {}

func (o *MetricsObserver) OnStateExit(state string) {}

func (o *MetricsObserver) OnStep(state string, event string) {
	o.stepStart = time.Now()
	o.metrics.steps.WithLabelValues(o.engineID).Inc()
}

func (o *MetricsObserver) OnGuardEvaluation(from string, to string, event string, result bool) {}

func (o *MetricsObserver) OnNoTransition(state string, event string) {
	o.metrics.rejections.WithLabelValues(o.engineID, state).Inc()
	o.observeStep()
}

func (o *MetricsObserver) OnEvaluationError(err *EvaluationError) {
	o.metrics.evalErrors.WithLabelValues(o.engineID, string(err.Kind)).Inc()
}

func (o *MetricsObserver) OnReset(initial string) {
	o.metrics.resets.WithLabelValues(o.engineID).Inc()
}

func (o *MetricsObserver) observeStep() {
	if o.stepStart.IsZero() {
		return
	}
	o.metrics.stepSeconds.WithLabelValues(o.engineID).Observe(time.Since(o.stepStart).Seconds())
	o.stepStart = time.Time{}
}
