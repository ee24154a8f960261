package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation and result label values
const (
	OperationDecode = "decode"
	OperationEncode = "encode"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	// Codec metrics
	CodecOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fabricapi_codec_operations_total",
			Help: "Total number of record conversions by record type, operation and result",
		},
		[]string{"record", "operation", "result"},
	)

	CodecDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fabricapi_codec_duration_seconds",
			Help:    "Record conversion duration in seconds",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"operation"},
	)

	UnknownPropertiesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fabricapi_codec_unknown_properties_total",
			Help: "Total number of unrecognized properties skipped while decoding",
		},
		[]string{"record"},
	)

	UnionDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fabricapi_codec_union_dispatch_total",
			Help: "Total number of discriminated decodes by union and selected variant",
		},
		[]string{"union", "variant"},
	)

	// Archive metrics
	ArchiveRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fabricapi_archive_records_total",
			Help: "Total number of archive operations by operation and result",
		},
		[]string{"operation", "result"},
	)
)

func init() {
	prometheus.MustRegister(CodecOperationsTotal)
	prometheus.MustRegister(CodecDuration)
	prometheus.MustRegister(UnknownPropertiesTotal)
	prometheus.MustRegister(UnionDispatchTotal)
	prometheus.MustRegister(ArchiveRecordsTotal)
}

// Result maps an error to the result label value
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
