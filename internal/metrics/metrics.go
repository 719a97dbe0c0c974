package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors, registered on their own registry.
type Metrics struct {
	registry        *prometheus.Registry
	Submissions     *prometheus.CounterVec
	Scores          prometheus.Histogram
	Notifications   *prometheus.CounterVec
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_submissions_total",
				Help: "Quiz submissions by outcome",
			},
			[]string{"outcome"},
		),
		Scores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "quiz_score_percentage",
				Help:    "Distribution of recorded scores",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_notifications_total",
				Help: "Notification deliveries by kind and result",
			},
			[]string{"kind", "result"},
		),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
	}
	m.registry.MustRegister(m.Submissions, m.Scores, m.Notifications, m.RequestCounter, m.RequestDuration)
	return m
}

// ObserveSubmission counts a submission outcome and, for recorded ones, its score.
func (m *Metrics) ObserveSubmission(outcome string, score float64, recorded bool) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
	if recorded {
		m.Scores.Observe(score)
	}
}

// ObserveNotification counts a notification attempt.
func (m *Metrics) ObserveNotification(kind string, ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.Notifications.WithLabelValues(kind, result).Inc()
}

// Middleware records request counts and latencies labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			endpoint = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
