package extractor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksProcessed tracks every task attempt, successful or not.
	TasksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extractor_tasks_processed_total",
		Help: "The total number of URL tasks processed.",
	})
	// TasksFailed tracks tasks recorded with a failure class.
	TasksFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extractor_tasks_failed_total",
		Help: "The total number of failed URL tasks by error class.",
	}, []string{"class"})
	// SSLOutcomes tracks the certificate probe verdicts.
	SSLOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extractor_ssl_probes_total",
		Help: "The total number of SSL probe verdicts by outcome.",
	}, []string{"outcome"})
	// SessionReconnects tracks recoveries from session death.
	SessionReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extractor_session_reconnects_total",
		Help: "The total number of render session re-creations.",
	})
	// Checkpoints tracks successful checkpoint flushes.
	Checkpoints = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extractor_checkpoints_total",
		Help: "The total number of checkpoints written.",
	})
	// PersistFailures tracks failed flush attempts that will be retried.
	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "extractor_persist_failures_total",
		Help: "The total number of failed result or checkpoint writes.",
	})
)
