package rest

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the HTTP routes. Middleware is applied by the caller.
func NewRouter(health *HealthHandler, admin *SeedAdminHandler, registry *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", health.Live)
	mux.HandleFunc("GET /ready", health.Ready)
	mux.HandleFunc("GET /health", health.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /admin/seed/initialize", admin.Initialize)
	mux.HandleFunc("POST /admin/seed/terms", admin.EnqueueTerms)
	mux.HandleFunc("POST /admin/seed/process", admin.Process)
	mux.HandleFunc("GET /admin/seed/runs/{id}", admin.GetRun)
	mux.HandleFunc("GET /admin/seed/status", admin.Status)
	mux.HandleFunc("GET /admin/seed/system-status", admin.SystemStatus)
	mux.HandleFunc("GET /admin/seed/usage", admin.Usage)
	mux.HandleFunc("POST /admin/seed/clear", admin.Clear)
	mux.HandleFunc("POST /admin/seed/recover", admin.Recover)
	mux.HandleFunc("GET /admin/seed/recovery-stats", admin.RecoveryStats)
	mux.HandleFunc("GET /admin/seed/dlq", admin.ListDLQ)
	mux.HandleFunc("POST /admin/seed/dlq/retry", admin.RetryDLQ)

	mux.HandleFunc("GET /admin/review", admin.ListReviews)
	mux.HandleFunc("GET /admin/review/{id}", admin.GetReview)
	mux.HandleFunc("POST /admin/review/{id}/resolve", admin.ResolveReview)

	return mux
}
