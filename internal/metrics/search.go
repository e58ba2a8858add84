package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simdoc",
			Name:      "searches_total",
			Help:      "Total number of similarity searches",
		},
		[]string{"measure", "status"},
	)

	SearchPhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "simdoc",
			Name:      "search_phase_duration_seconds",
			Help:      "Duration of each search phase in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"measure", "phase"}, // shingle / weigh / sketch / sort / total
	)

	SearchDocuments = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "simdoc",
			Name:      "search_documents",
			Help:      "Number of documents per search",
			Buckets:   prometheus.ExponentialBuckets(2, 4, 10),
		},
		[]string{"measure"},
	)

	SearchCandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simdoc",
			Name:      "search_candidates_total",
			Help:      "Candidate pairs produced by sketch sorting",
		},
		[]string{"measure", "kind"}, // "window" / "distinct" / "verified"
	)

	SearchPairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simdoc",
			Name:      "search_pairs_total",
			Help:      "Similar pairs reported",
		},
		[]string{"measure"},
	)
)

var searchMetricsRegistered bool

// SearchCollectors returns every search collector, for registration on a custom registry.
func SearchCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		SearchesTotal,
		SearchPhaseDuration,
		SearchDocuments,
		SearchCandidatesTotal,
		SearchPairsTotal,
	}
}

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchCollectors()...)
	searchMetricsRegistered = true
}
