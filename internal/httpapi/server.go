package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"irisd/internal/serving"
	"irisd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Predict(features [types.NumFeatures]float64) (serving.Prediction, error)
	Ready() bool
}

// NewMux builds the router: /, /health, /healthz, /readyz, /predict,
// /metrics, and (with -tags=swagger) the swagger UI.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		info := types.InfoResponse{
			Name:    "irisd",
			Version: "1.0.0",
			Health:  "/health",
			Predict: "/predict",
			Metrics: "/metrics",
		}
		if err := json.NewEncoder(w).Encode(info); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp := types.HealthResponse{Status: "healthy", ModelLoaded: svc.Ready()}
		if !resp.ModelLoaded {
			resp.Status = "unhealthy"
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	})

	r.Post("/predict", func(w http.ResponseWriter, r *http.Request) {
		// Content-Type check
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		// Limit body size (configurable, default 1MiB)
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if field, ok := req.Complete(); !ok {
			writeJSONError(w, http.StatusBadRequest, field+" is required")
			return
		}

		start := time.Now()
		lvl := requestLogLevel(r)
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()

		pred, err := svc.Predict(req.Features())
		if err != nil {
			// If context was canceled (client disconnect, shutdown), just return.
			if joinedCtx.Err() != nil {
				return
			}
			status := http.StatusInternalServerError
			switch {
			case serving.IsModelNotLoaded(err):
				status = http.StatusServiceUnavailable
			case serving.IsUnknownClassIndex(err):
				status = http.StatusInternalServerError
			default:
				if he, ok := err.(HTTPError); ok {
					status = he.StatusCode()
				}
			}
			writeJSONError(w, status, err.Error())
			if lvl >= LevelError {
				logEvent(r).Int("status", status).Dur("dur", time.Since(start)).Err(err).Msg("predict end")
			}
			return
		}

		RecordPrediction(pred.ClassName, pred.Confidence)
		w.Header().Set("Content-Type", "application/json")
		resp := types.PredictResponse{Prediction: pred.ClassName, Confidence: pred.Confidence}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
		if lvl >= LevelInfo {
			logEvent(r).Int("status", 200).Str("prediction", pred.ClassName).Float64("confidence", pred.Confidence).Dur("dur", time.Since(start)).Msg("predict end")
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}
