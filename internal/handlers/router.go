package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func SetupRouter(runner BonusRunner, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	runs := NewRunHandler(runner, logger)

	router.Use(loggingMiddleware(logger.With(zap.String("component", "http"))))

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/bonus/runs", runs.StartRun).Methods(http.MethodPost)
	api.HandleFunc("/bonus/runs", runs.ListRuns).Methods(http.MethodGet)
	api.HandleFunc("/bonus/runs/{run_id}", runs.GetRun).Methods(http.MethodGet)
	api.HandleFunc("/bonus/runs/{run_id}/reconciliation", runs.GetReconciliation).Methods(http.MethodGet)
	api.HandleFunc("/bonus/reports", runs.ExportReport).Methods(http.MethodPost)

	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "healthy",
	}
	respondWithJSON(w, http.StatusOK, response)
}

type ErrorResponse struct {
	Error string `json:"error"`
}
