// Package metrics holds the prometheus collectors for the swipe pipeline.
// All methods are nil safe so components can run without a registry
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector this service exports
type Registry struct {
	reg *prometheus.Registry

	QueueSize        prometheus.Gauge
	Enqueues         *prometheus.CounterVec
	CommitAttempts   *prometheus.CounterVec
	CommitDuration   *prometheus.HistogramVec
	Matches          *prometheus.CounterVec
	CandidateFetches *prometheus.CounterVec
	InboxDropped     prometheus.Counter
}

// New builds a registry with the process and go collectors plus the basematch series
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		QueueSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "basematch_queue_size",
			Help: "Decisions pending in the swipe queue",
		}),
		Enqueues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "basematch_enqueue_total",
			Help: "Swipe decisions offered to the queue by result (accepted, duplicate, full)",
		}, []string{"result"}),
		CommitAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "basematch_commit_attempts_total",
			Help: "Ledger submissions by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		CommitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "basematch_commit_duration_seconds",
			Help:    "Wall time of a commit attempt until the wallet answered",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),
		Matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "basematch_matches_total",
			Help: "Matches surfaced to the user by source (ledger, predicted)",
		}, []string{"source"}),
		CandidateFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "basematch_candidate_fetch_total",
			Help: "Candidate refreshes by source (neynar, synthetic)",
		}, []string{"source"}),
		InboxDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "basematch_match_inbox_dropped_total",
			Help: "Ledger match events dropped because the notifier inbox was full",
		}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.QueueSize, r.Enqueues, r.CommitAttempts, r.CommitDuration,
		r.Matches, r.CandidateFetches, r.InboxDropped,
	)
	return r
}

// Handler serves the registry in the prometheus text format
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the underlying registry for tests
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// SetQueueSize records the current queue length
func (r *Registry) SetQueueSize(n int) {
	if r != nil {
		r.QueueSize.Set(float64(n))
	}
}

// Enqueue counts one offered decision
func (r *Registry) Enqueue(result string) {
	if r != nil {
		r.Enqueues.WithLabelValues(result).Inc()
	}
}

// CommitAttempt counts one strategy submission
func (r *Registry) CommitAttempt(strategy, outcome string) {
	if r != nil {
		r.CommitAttempts.WithLabelValues(strategy, outcome).Inc()
	}
}

// ObserveCommit records how long a full commit took
func (r *Registry) ObserveCommit(outcome string, seconds float64) {
	if r != nil {
		r.CommitDuration.WithLabelValues(outcome).Observe(seconds)
	}
}

// Match counts one surfaced match
func (r *Registry) Match(source string) {
	if r != nil {
		r.Matches.WithLabelValues(source).Inc()
	}
}

// CandidateFetch counts one candidate refresh
func (r *Registry) CandidateFetch(source string) {
	if r != nil {
		r.CandidateFetches.WithLabelValues(source).Inc()
	}
}

// InboxDrop counts one dropped match event
func (r *Registry) InboxDrop() {
	if r != nil {
		r.InboxDropped.Inc()
	}
}
