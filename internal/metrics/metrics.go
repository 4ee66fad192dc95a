package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcome labels used by RequestsTotal.
const (
	StatusSuccess   = "success"
	StatusEmpty     = "empty"
	StatusNotFound  = "not_found"
	StatusFailure   = "failure"
	StatusAbandoned = "abandoned"
)

type Metrics struct {
	KeysLoaded       prometheus.Gauge
	MalformedLines   prometheus.Counter
	RequestsTotal    *prometheus.CounterVec
	RequestSeconds   *prometheus.HistogramVec
	ActiveWorkers    prometheus.Gauge
	RecordsCollected prometheus.Counter
	DeadlineExceeded prometheus.Counter
	DispatchSeconds  prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		KeysLoaded: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "postcode_lookup_keys_loaded",
			Help: "Number of distinct seed addresses loaded from the dataset.",
		}),
		MalformedLines: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "postcode_lookup_dataset_malformed_lines_total",
			Help: "Total number of dataset lines skipped because they had too few fields.",
		}),
		RequestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "postcode_lookup_requests_total",
			Help: "Total number of postal code lookups by outcome.",
		}, []string{"status"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "postcode_lookup_provider_request_duration_seconds",
			Help:    "Duration of requests to the address provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "postcode_lookup_active_workers",
			Help: "Current number of workers waiting on the address provider.",
		}),
		RecordsCollected: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "postcode_lookup_records_collected_total",
			Help: "Total number of address records collected by the dispatcher.",
		}),
		DeadlineExceeded: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "postcode_lookup_deadline_exceeded_total",
			Help: "Total number of dispatches truncated by their deadline.",
		}),
		DispatchSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "postcode_lookup_dispatch_duration_seconds",
			Help:    "Wall-clock duration of a whole dispatch.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 60},
		}),
	}
}
