package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Total number of chat requests by resolved intent",
		},
		[]string{"intent"},
	)

	ChatRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "chat_request_duration_seconds",
			Help: "Duration of chat request handling in seconds",
		},
		[]string{"intent"},
	)

	CollaboratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_collaborator_failures_total",
			Help: "Total number of failed calls to external collaborators",
		},
		[]string{"collaborator"},
	)

	NLPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "nlp_request_duration_seconds",
			Help: "Duration of NLP parse requests in seconds",
		},
		[]string{"status"},
	)

	HeuristicMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_heuristic_matches_total",
			Help: "Total number of heuristic fallback matches by intent",
		},
		[]string{"intent"},
	)
)
