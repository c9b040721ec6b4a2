package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/trogers1052/mandi-price-service/internal/metrics"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler, m *metrics.Recorder) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger(m))

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Forecasting and history
	api.HandleFunc("/market/predict", handler.Predict).Methods("GET")
	api.HandleFunc("/market/sync-live", handler.SyncLive).Methods("GET")
	api.HandleFunc("/market/trend", handler.Trend).Methods("GET")
	api.HandleFunc("/market/latest", handler.Latest).Methods("GET")

	// Live mandi prices
	api.HandleFunc("/mandi/rates", handler.Rates).Methods("GET")
	api.HandleFunc("/mandi/best", handler.BestMandi).Methods("GET")
	api.HandleFunc("/mandi/distance", handler.Distance).Methods("GET")

	// Kept last: a later non-matching route would turn mux's 405 into a 404.
	api.HandleFunc("/market/retrain", handler.Retrain).Methods("POST")

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(m *metrics.Recorder) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			took := time.Since(start)
			m.RecordLatency("http "+route, took)

			log.Debug().
				Str("method", r.Method).
				Str("route", route).
				Int("status", rec.status).
				Dur("took", took).
				Msg("HTTP request")
		})
	}
}
