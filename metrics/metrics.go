// Package metrics exports optimizer progress as Prometheus metrics.
package metrics

import (
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Observer records evaluations and attempts.  It satisfies
// biteopt.Observer and is safe for concurrent use.
type Observer struct {
	evals        prometheus.Counter
	nanEvals     prometheus.Counter
	attempts     prometheus.Counter
	bestCost     prometheus.Gauge
	attemptBest  *prometheus.GaugeVec
	attemptEvals prometheus.Histogram

	mu   sync.Mutex
	best float64
}

// New creates an Observer and registers its metrics with reg.
func New(reg prometheus.Registerer, namespace string) (*Observer, error) {
	o := &Observer{
		best: math.Inf(1),
		evals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Objective function evaluations.",
		}),
		nanEvals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nan_evaluations_total",
			Help:      "Evaluations that returned NaN.",
		}),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Finished optimization attempts.",
		}),
		bestCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_cost",
			Help:      "Lowest cost evaluated so far.",
		}),
		attemptBest: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "attempt_best_cost",
			Help:      "Best cost of each finished attempt.",
		}, []string{"attempt"}),
		attemptEvals: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attempt_evaluations",
			Help:      "Evaluations spent per attempt.",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 16),
		}),
	}

	for _, c := range []prometheus.Collector{o.evals, o.nanEvals, o.attempts, o.bestCost, o.attemptBest, o.attemptEvals} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *Observer) ObserveEval(attempt int, cost float64) {
	o.evals.Inc()
	if math.IsNaN(cost) {
		o.nanEvals.Inc()
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if cost < o.best {
		o.best = cost
		o.bestCost.Set(cost)
	}
}

func (o *Observer) ObserveAttempt(attempt, evals int, best float64) {
	o.attempts.Inc()
	o.attemptBest.WithLabelValues(strconv.Itoa(attempt)).Set(best)
	o.attemptEvals.Observe(float64(evals))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
