package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Record outcome labels for RecordsProcessed.
const (
	StatusUpdated = "updated"
	StatusEmpty   = "empty"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

type Metrics struct {
	RecordsFetched   prometheus.Gauge
	RecordsProcessed *prometheus.CounterVec
	APIErrors        *prometheus.CounterVec
	RequestSeconds   *prometheus.HistogramVec
	ActiveWorkers    prometheus.Gauge
	LastRunSeconds   prometheus.Gauge
	LastSuccess      prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RecordsFetched: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "address_normalizer_records_fetched",
			Help: "Number of address records fetched by the last run.",
		}),
		RecordsProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "address_normalizer_records_processed_total",
			Help: "Total number of processed address records by outcome.",
		}, []string{"status"}),
		APIErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "address_normalizer_provider_api_errors_total",
			Help: "Total number of errors received from the geocoding provider API.",
		}, []string{"provider"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "address_normalizer_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "address_normalizer_active_workers",
			Help: "Current number of workers normalizing records.",
		}),
		LastRunSeconds: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "address_normalizer_last_run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
		LastSuccess: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "address_normalizer_last_success_timestamp_seconds",
			Help: "Unix time of the last run that finished without a fatal error.",
		}),
	}
}
