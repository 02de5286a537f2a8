package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsRecordsBillOutcomes(t *testing.T) {
	metrics := NewMetrics()
	metrics.BillFinalized("Sale")
	metrics.BillFinalized("Sale")
	metrics.FinalizeFailed("PERSISTING")
	metrics.JobRun("credits:reconcile", errors.New("boom"))
	metrics.CreditDrift(3)

	body := scrape(t, metrics)
	for _, want := range []string{
		`pos_bills_finalized_total{type="Sale"} 2`,
		`pos_bill_finalize_failures_total{stage="PERSISTING"} 1`,
		`pos_jobs_total{status="error",task="credits:reconcile"} 1`,
		`pos_credit_drift_customers 3`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics, got: %s", want, body)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var metrics *Metrics
	metrics.BillFinalized("Sale")
	metrics.FinalizeFailed("VALIDATING")
	metrics.JobRun("x", nil)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/api/bills")

	req := httptest.NewRequest(http.MethodPost, "/api/bills", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, "pos_http_requests_total{code=\"418\",route=\"/api/bills\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, "pos_http_request_duration_seconds_bucket{route=\"/api/bills\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}
