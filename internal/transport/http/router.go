// Package http assembles the public router: platform middleware chain,
// module handlers, health, and metrics.
package http

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	caseshandler "caseflow/internal/cases/handler"
	partieshandler "caseflow/internal/parties/handler"
	platformmetrics "caseflow/internal/platform/metrics"
	"caseflow/internal/platform/middleware"
	platformredis "caseflow/internal/platform/redis"
	"caseflow/pkg/platform/httputil"
)

// Deps carries everything the router mounts. Cache and DB are optional and
// only used for health reporting.
type Deps struct {
	Cases     caseshandler.Service
	Parties   partieshandler.Service
	Validator middleware.TokenValidator
	Logger    *slog.Logger
	Metrics   *platformmetrics.Metrics

	DB    *sql.DB
	Cache *platformredis.Client
}

// New builds the router. Authenticated API routes live under /api/v1;
// health and metrics stay unauthenticated for the platform probes.
func New(deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Observe(deps.Logger, deps.Metrics))

	r.Get("/healthz", healthHandler(deps))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		caseshandler.New(deps.Cases, deps.Logger).Register(r)
		partieshandler.New(deps.Parties, deps.Logger).Register(r)
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Checks: map[string]string{}}
		status := http.StatusOK

		if deps.DB != nil {
			if err := deps.DB.PingContext(r.Context()); err != nil {
				resp.Checks["postgres"] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			} else {
				resp.Checks["postgres"] = "ok"
			}
		}
		if deps.Cache != nil {
			if err := deps.Cache.Health(r.Context()); err != nil {
				resp.Checks["redis"] = err.Error()
				resp.Status = "degraded"
			} else {
				resp.Checks["redis"] = "ok"
			}
		}

		httputil.WriteJSON(w, status, resp)
	}
}
