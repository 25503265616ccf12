package main

import "github.com/prometheus/client_golang/prometheus"

var (
	goalComputations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitlog",
		Subsystem: "metrics",
		Name:      "daily_goal_computations_total",
		Help:      "Number of daily goals computed.",
	})
	computationWarnings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitlog",
		Subsystem: "metrics",
		Name:      "computation_warnings_total",
		Help:      "Non-fatal computation warnings, by code.",
	}, []string{"code"})
	fastsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitlog",
		Subsystem: "fasting",
		Name:      "completed_total",
		Help:      "Fasts that reached zero remaining time.",
	})
	summaryDrift = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitlog",
		Subsystem: "daily",
		Name:      "summary_cache_drift_total",
		Help:      "Cached daily summaries that disagreed with a full recomputation and were rewritten.",
	})
)

func init() {
	prometheus.MustRegister(goalComputations, computationWarnings, fastsCompleted, summaryDrift)
}

// recordGoalComputed counts a goal computation and each warning it raised.
func recordGoalComputed(warnings []ComputationWarning) {
	goalComputations.Inc()
	for _, w := range warnings {
		computationWarnings.WithLabelValues(w.Code).Inc()
	}
}

// recordFastCompleted counts the one-time completion of a fast.
func recordFastCompleted() {
	fastsCompleted.Inc()
}

// recordSummaryDrift counts a cache row rewritten from a full recomputation.
func recordSummaryDrift() {
	summaryDrift.Inc()
}
