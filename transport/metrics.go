package transport

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metricsSet struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func newMetricsSet(reg prometheus.Registerer) *metricsSet {
	factory := promauto.With(reg)
	return &metricsSet{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "doodle_client_requests_total",
			Help: "Total number of requests issued against the polling service.",
		}, []string{"method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "doodle_client_request_duration_seconds",
			Help:    "Histogram of latencies for polling service requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
}

func (m *metricsSet) observe(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	labels := []string{method, strconv.Itoa(status)}
	m.requestsTotal.WithLabelValues(labels...).Inc()
	m.requestDuration.WithLabelValues(labels...).Observe(elapsed.Seconds())
}
