package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Histogram: gateway HTTP latency in seconds.
	GatewayLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_latency_seconds",
			Help:    "HTTP request latency for the gateway in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"path", "method", "status_code"},
	)

	// Counter: non-2xx replies from the inference provider.
	UpstreamErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "upstream_errors_total",
			Help: "Total number of provider calls that returned a non-2xx status.",
		},
	)

	// Counter: chunks manufactured by the simulated streaming path.
	StreamChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_chunks_total",
			Help: "Total number of chunks emitted by simulated streaming.",
		},
	)

	// Counter: streamed responses by delivery mode.
	StreamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streams_total",
			Help: "Total number of streamed responses, labeled by mode.",
		},
		[]string{"mode"}, // "simulated" or "passthrough"
	)
)

// Register is called once in main() to register metrics.
func Register() {
	prometheus.MustRegister(
		GatewayLatencySeconds,
		UpstreamErrorsTotal,
		StreamChunksTotal,
		StreamsTotal,
	)
}

// Handler exposes the /metrics endpoint for Prometheus to scrape.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware measures gateway latency for each HTTP request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// capture status code
		rec := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rec, r)

		duration := time.Since(start).Seconds()

		GatewayLatencySeconds.
			WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(rec.statusCode)).
			Observe(duration)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming handlers working behind the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
