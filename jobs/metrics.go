package jobs

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the runner's Prometheus collectors.
type Metrics struct {
	RunsStarted  prometheus.Counter
	RunsFinished *prometheus.CounterVec
	Rounds       prometheus.Counter
	Waiting      prometheus.Gauge
	RunDuration  prometheus.Histogram
	RoundCost    prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "groupmix",
			Name:      "runs_started_total",
			Help:      "Solver runs accepted by the runner.",
		}),
		RunsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groupmix",
			Name:      "runs_finished_total",
			Help:      "Solver runs completed, by outcome.",
		}, []string{"outcome"}),
		Rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "groupmix",
			Name:      "rounds_total",
			Help:      "Rounds planned across all runs.",
		}),
		Waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "groupmix",
			Name:      "runs_waiting",
			Help:      "Runs waiting for a free solver slot.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "groupmix",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a solver run once started.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		RoundCost: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "groupmix",
			Name:      "round_cost",
			Help:      "Conflict score of each feasible round.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),
	}
	reg.MustRegister(m.RunsStarted, m.RunsFinished, m.Rounds, m.Waiting, m.RunDuration, m.RoundCost)
	return m
}
