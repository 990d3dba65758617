// Package metrics exposes Prometheus instruments for the points recompute.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recompute outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

var (
	RecomputeRaces = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "f1predict_recompute_races_total",
		Help: "Race point recomputations by outcome.",
	}, []string{"outcome"})

	RecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "f1predict_recompute_duration_seconds",
		Help:    "Time spent recomputing the points of one race.",
		Buckets: prometheus.DefBuckets,
	})

	PredictionsScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "f1predict_predictions_scored_total",
		Help: "Predictions scored and persisted.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
