package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSubmission(t *testing.T) {
	m := New()
	m.ObserveSubmission("recorded", 80, true)
	m.ObserveSubmission("duplicate", 0, false)
	m.ObserveSubmission("recorded", 40, true)

	if got := testutil.ToFloat64(m.Submissions.WithLabelValues("recorded")); got != 2 {
		t.Fatalf("expected 2 recorded submissions, got %v", got)
	}
	if got := testutil.CollectAndCount(m.Scores); got != 1 {
		t.Fatalf("expected one score histogram, got %d", got)
	}

	m.ObserveNotification("submission", false)
	if got := testutil.ToFloat64(m.Notifications.WithLabelValues("submission", "failed")); got != 1 {
		t.Fatalf("expected one failed notification, got %v", got)
	}

	var nilMetrics *Metrics
	nilMetrics.ObserveSubmission("recorded", 1, true)
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/results/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/results/"+id, nil))
	}
	if got := testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/results/{id}", "404")); got != 2 {
		t.Fatalf("expected 2 requests on the route pattern, got %v", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "http_requests_total") {
		t.Fatalf("expected exposition to include request counter")
	}
}
