package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iris",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "iris",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1.0},
		},
		[]string{"endpoint"},
	)

	activeRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "iris",
			Subsystem: "api",
			Name:      "active_requests",
			Help:      "Number of currently active requests",
		},
	)

	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iris",
			Name:      "predictions_total",
			Help:      "Total number of predictions made",
		},
		[]string{"predicted_class"},
	)

	predictionConfidence = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "iris",
			Name:      "prediction_confidence",
			Help:      "Confidence score distribution of predictions",
			Buckets:   []float64{0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 0.99, 1.0},
		},
		[]string{"predicted_class"},
	)

	modelLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "iris",
			Name:      "model_loaded",
			Help:      "Whether the model is currently loaded (1=yes, 0=no)",
		},
	)

	modelLoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "iris",
			Name:      "model_load_duration_seconds",
			Help:      "Time taken to load the model",
			Buckets:   []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
	)

	apiHealth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "iris",
			Subsystem: "api",
			Name:      "health",
			Help:      "API health status (1=healthy, 0=unhealthy)",
		},
	)
)

func init() {
	prometheus.MustRegister(
		requestsTotal, requestDuration, activeRequests,
		predictionsTotal, predictionConfidence,
		modelLoaded, modelLoadDuration, apiHealth,
	)
}

// statusRecorder wraps http.ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware instruments requests for Prometheus: request counter
// keyed by method/endpoint/status, per-endpoint latency histogram, and the
// in-flight gauge (decremented on every exit path via defer).
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		activeRequests.Inc()
		defer activeRequests.Dec()

		sr := &statusRecorder{ResponseWriter: w, status: 200}
		start := time.Now()
		next.ServeHTTP(sr, r)
		endpoint := routePatternOrPath(r)
		requestsTotal.WithLabelValues(r.Method, endpoint, itoa(sr.status)).Inc()
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	})
}

// routePatternOrPath returns the chi route pattern if available, otherwise
// falls back to URL path. This avoids high-cardinality label values.
func routePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// RecordPrediction records one prediction outcome. Best-effort: recording
// must never fail the request it is observing.
func RecordPrediction(predictedClass string, confidence float64) {
	defer func() { _ = recover() }()
	predictionsTotal.WithLabelValues(predictedClass).Inc()
	predictionConfidence.WithLabelValues(predictedClass).Observe(confidence)
}

// ObserveModelLoad records the startup load duration.
func ObserveModelLoad(d time.Duration) {
	modelLoadDuration.Observe(d.Seconds())
}

// SetModelLoaded flips the readiness gauges after the startup transition.
func SetModelLoaded(loaded bool) {
	v := 0.0
	if loaded {
		v = 1.0
	}
	modelLoaded.Set(v)
	apiHealth.Set(v)
}

// fast integer to ascii for small set of status codes
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
