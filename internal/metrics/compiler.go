package metrics

import "github.com/prometheus/client_golang/prometheus"

// Delete compiler Prometheus metrics.
var (
	DeleteCompileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bucketdb",
			Name:      "delete_compile_total",
			Help:      "Total number of delete request compilations by outcome",
		},
		[]string{"outcome"}, // "fast_path" / "canonicalized" / "invalid" / "error"
	)

	ExpressionNodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bucketdb",
			Name:      "expression_nodes_total",
			Help:      "Total predicate expression nodes consumed during compilation, by operator",
		},
		[]string{"operator"},
	)

	TimeseriesSplitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bucketdb",
			Name:      "timeseries_split_total",
			Help:      "Total time-series predicate splits by result shape",
		},
		[]string{"result"}, // "exact" / "residual"
	)

	DeletedDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bucketdb",
			Name:      "deleted_documents_total",
			Help:      "Total documents deleted, by execution path",
		},
		[]string{"path"}, // "fast_path" / "collection_scan" / "bucket_drop" / "arbitrary"
	)
)

var compilerMetricsRegistered bool

// RegisterCompilerMetrics registers delete compiler metrics. Must be called once from main.
func RegisterCompilerMetrics() {
	if compilerMetricsRegistered {
		return
	}
	prometheus.MustRegister(DeleteCompileTotal)
	prometheus.MustRegister(ExpressionNodesTotal)
	prometheus.MustRegister(TimeseriesSplitTotal)
	prometheus.MustRegister(DeletedDocumentsTotal)
	compilerMetricsRegistered = true
}
