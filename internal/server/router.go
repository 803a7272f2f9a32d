package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saranya/insurewise/internal/metrics"
)

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	API              *APIHandlers
	Metrics          *metrics.Metrics
	AllowedOrigins   []string
	AllowCredentials bool
}

// NewRouter wires the HTTP routes exposed by the service.
func NewRouter(logger *slog.Logger, deps RouterDependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", deps.API.handleRoot)
	mux.HandleFunc("/health", deps.API.handleHealth)
	mux.HandleFunc("/policies", deps.API.handlePolicies)
	mux.HandleFunc("/quote", deps.API.handleQuote)
	mux.HandleFunc("/handoff", deps.API.handleHandoff)
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics.Handler())
	}

	handler := http.Handler(loggingMiddleware(logger, mux))
	if deps.Metrics != nil {
		handler = metricsMiddleware(deps.Metrics, handler)
	}
	return corsMiddleware(deps.AllowedOrigins, deps.AllowCredentials)(handler)
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func metricsMiddleware(m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.ObserveRequest(r.Method, normalizePath(r.URL.Path), rec.status, time.Since(start))
	})
}

// normalizePath keeps the metric path label to a fixed set of values.
func normalizePath(path string) string {
	switch path {
	case "/", "/health", "/policies", "/quote", "/handoff", "/metrics":
		return path
	default:
		return "other"
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// corsMiddleware grants cross-origin access to the listed origins, where
// "*" admits any origin. The origin is always reflected rather than
// wildcarded so that credentialed requests stay valid.
func corsMiddleware(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	normalized := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin != "" {
			normalized[origin] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := false
			if origin != "" {
				_, allowed = normalized[origin]
				if !allowed {
					_, allowed = normalized["*"]
				}
			}

			if !allowed {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			if allowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
				w.Header().Set("Access-Control-Allow-Headers", requested)
			} else {
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
