package selection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bulk selection outcomes.
const (
	resultSuccess    = "success"
	resultFailure    = "failure"
	resultSuperseded = "superseded"
	resultNoop       = "noop"
)

var (
	selectionSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pagesel_selection_size",
		Help: "Number of selected records after the last change",
	})

	bulkSelectTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagesel_bulk_select_total",
		Help: "Bulk selections by result (success, failure, superseded, noop)",
	}, []string{"result"})

	bulkSelectPagesFetched = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pagesel_bulk_select_pages_fetched",
		Help:    "Pages fetched from the source per bulk selection",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	staleResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagesel_stale_responses_total",
		Help: "Results dropped because a newer request superseded them",
	}, []string{"operation"})
)
