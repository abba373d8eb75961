package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ocr-pro/internal/infra/metrics"
)

// NewRouter returns a chi router carrying the global middleware plus the
// /health and /metrics endpoints. Versioned routes are registered on it by the caller.
func NewRouter(logger *zerolog.Logger, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(
		CORS(allowedOrigins),
		TraceID(),
		RequestLog(logger),
		Recover(logger),
	)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", Chain(metrics.Handler(), Timeout(10*time.Second)))
	return r
}
