package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi POS.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	billsFinalized  *prometheus.CounterVec
	finalizeFailed  *prometheus.CounterVec
	jobsTotal       *prometheus.CounterVec
	creditDrift     prometheus.Gauge
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	finalized := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_bills_finalized_total",
		Help: "Bills finalized by transaction type.",
	}, []string{"type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_bill_finalize_failures_total",
		Help: "Finalize attempts that returned to draft, by failing stage.",
	}, []string{"stage"})
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_jobs_total",
		Help: "Background job runs by task and outcome.",
	}, []string{"task", "status"})
	drift := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pos_credit_drift_customers",
		Help: "Customers whose stored credit differs from bill history at the last reconcile.",
	})
	registry.MustRegister(requests, duration, finalized, failed, jobs, drift)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		billsFinalized:  finalized,
		finalizeFailed:  failed,
		jobsTotal:       jobs,
		creditDrift:     drift,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// BillFinalized menghitung bill yang berhasil difinalisasi.
func (m *Metrics) BillFinalized(txType string) {
	if m == nil {
		return
	}
	m.billsFinalized.WithLabelValues(txType).Inc()
}

// FinalizeFailed menghitung finalisasi yang gagal per tahap.
func (m *Metrics) FinalizeFailed(stage string) {
	if m == nil {
		return
	}
	m.finalizeFailed.WithLabelValues(stage).Inc()
}

// JobRun records one background job outcome.
func (m *Metrics) JobRun(task string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.jobsTotal.WithLabelValues(task, status).Inc()
}

// CreditDrift records how many customers drifted at the last reconcile.
func (m *Metrics) CreditDrift(customers int) {
	if m == nil {
		return
	}
	m.creditDrift.Set(float64(customers))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
