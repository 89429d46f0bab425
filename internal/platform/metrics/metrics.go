package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricSubjectsCreated    = "registry_subjects_created_total"
	MetricVotesCast          = "registry_votes_cast_total"
	MetricContentUpdates     = "registry_content_updates_total"
	MetricLeaderboardQueries = "registry_leaderboard_queries_total"
)

// Metrics holds the registry's Prometheus counters. One instance per process;
// the HTTP server increments counters on successful operations and serves the
// scrape endpoint via Handler.
type Metrics struct {
	SubjectsCreated    prometheus.Counter
	VotesCast          prometheus.Counter
	ContentUpdates     prometheus.Counter
	LeaderboardQueries prometheus.Counter

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		SubjectsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSubjectsCreated,
			Help: "Subjects registered since process start",
		}),
		VotesCast: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricVotesCast,
			Help: "Votes accepted since process start",
		}),
		ContentUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricContentUpdates,
			Help: "Subject content updates since process start",
		}),
		LeaderboardQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricLeaderboardQueries,
			Help: "Top-K leaderboard queries served since process start",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.SubjectsCreated,
		m.VotesCast,
		m.ContentUpdates,
		m.LeaderboardQueries,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
