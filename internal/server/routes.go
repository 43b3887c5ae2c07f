// internal/server/routes.go
//
// HTTP surface of the bootstrap shell: health probe plus Prometheus
// metrics.
//
/*
Context
--------
The shell exposes exactly two endpoints:

  • GET /healthz  – liveness probe echoing runtime identity,
  • GET /metrics  – Prometheus registry (config and log counters).

Every request passes through a small logging middleware that emits a DEBUG
span on the global sugared logger, so request traffic shows up on the
console only when the operator has DEBUG enabled.

Notes
-----
  • Handlers never expose settings beyond the non-secret identity fields
    baked into Health at startup.
  • Oxford commas, two spaces after periods.
*/
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// New constructs an *http.Server with hardened timeouts: ReadTimeout kills
// slow-loris headers, WriteTimeout caps total response time, IdleTimeout
// closes idle keep-alives.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Health is the payload served on /healthz.  BootID is minted once per
// process so restarts are visible to pollers.
type Health struct {
	Status string `json:"status"`
	Env    string `json:"env"`
	Debug  bool   `json:"debug"`
	BootID string `json:"boot_id"`
}

/*──────────────────────────── router ───────────────────────────────────────*/

// Routes assembles the shell's http.Handler.
func Routes(h Health) http.Handler {
	r := chi.NewRouter()
	r.Use(logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		resp := h
		resp.Status = "ok"
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			zap.S().Errorw("healthz encode failed", "err", err)
		}
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

/*──────────────────────────── middleware ───────────────────────────────────*/

// logRequests emits one DEBUG span per request with method, path, status,
// and elapsed time.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		zap.S().Debugw("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
		)
	})
}
