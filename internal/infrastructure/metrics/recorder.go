package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vlaamswoordenboek/woordenboek/internal/domain/entity"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/workflow"
)

const namespace = "woordenboek"

// Recorder exports lifecycle metrics to prometheus
type Recorder struct {
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	byState     *prometheus.GaugeVec
	gatherer    prometheus.Gatherer
}

// NewRecorder registers the article metrics on a fresh registry
func NewRecorder() (*Recorder, error) {
	reg := prometheus.NewRegistry()

	r := &Recorder{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "article",
			Name:      "transitions_total",
			Help:      "Committed article lifecycle transitions.",
		}, []string{"trigger", "from", "to"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "article",
			Name:      "transition_failures_total",
			Help:      "Rejected or failed article lifecycle transitions by reason.",
		}, []string{"trigger", "reason"}),
		byState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "articles_by_state",
			Help:      "Number of articles per lifecycle state.",
		}, []string{"state"}),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{
		r.transitions,
		r.failures,
		r.byState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// TransitionSucceeded counts a committed transition
func (r *Recorder) TransitionSucceeded(trigger workflow.Trigger, from, to workflow.State) {
	r.transitions.WithLabelValues(trigger.String(), from.String(), to.String()).Inc()
}

// TransitionFailed counts a rejected transition
func (r *Recorder) TransitionFailed(trigger workflow.Trigger, reason string) {
	r.failures.WithLabelValues(trigger.String(), reason).Inc()
}

// ObserveStateCounts sets the per-state gauge
func (r *Recorder) ObserveStateCounts(counts []entity.StateCount) {
	for _, c := range counts {
		r.byState.WithLabelValues(c.State.String()).Set(float64(c.Count))
	}
}

// Handler serves the registry in the prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
