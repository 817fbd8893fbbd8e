package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ssma"

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	ForecastFetches       *prometheus.CounterVec // labels: outcome={success,error,unavailable}
	ForecastFetchDuration prometheus.Histogram
	ForecastCache         *prometheus.CounterVec // labels: result={hit,miss}

	IncidentsSubmitted prometheus.Counter
	ReviewsSaved       prometheus.Counter
	Logins             *prometheus.CounterVec // labels: outcome={success,failure}
	DashboardQueries   prometheus.Counter
	StreamSubscribers  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// Tests pass prometheus.NewRegistry() to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ForecastFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_fetches_total",
			Help:      "Forecast provider requests by outcome.",
		}, []string{"outcome"}),
		ForecastFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_fetch_duration_seconds",
			Help:      "Forecast provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ForecastCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_cache_total",
			Help:      "Forecast summary cache lookups by result.",
		}, []string{"result"}),
		IncidentsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incidents_submitted_total",
			Help:      "Incident reports stored.",
		}),
		ReviewsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_saved_total",
			Help:      "Review annotations applied to incidents.",
		}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		DashboardQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_queries_total",
			Help:      "Dashboard aggregation requests served.",
		}),
		StreamSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_subscribers",
			Help:      "Clients connected to the live incident stream.",
		}),
	}

	reg.MustRegister(
		m.ForecastFetches,
		m.ForecastFetchDuration,
		m.ForecastCache,
		m.IncidentsSubmitted,
		m.ReviewsSaved,
		m.Logins,
		m.DashboardQueries,
		m.StreamSubscribers,
	)

	return m
}
