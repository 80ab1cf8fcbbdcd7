package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"dao-governance/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "dao"

// Outcome label values besides error codes.
const (
	OutcomeOK      = "ok"
	OutcomeUnknown = "error"
)

// Recorder implements ports.MetricsRecorder on a private Prometheus registry
// and also instruments the HTTP server.
type Recorder struct {
	registry     *prometheus.Registry
	operations   *prometheus.CounterVec
	treasury     prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewRecorder registers the governance, HTTP and runtime collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "governance_operations_total",
			Help:      "Governance write operations by outcome (ok or error code).",
		}, []string{"operation", "outcome"}),
		treasury: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "treasury_balance_wei",
			Help:      "Treasury balance after the last committed write.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "path"}),
	}

	r.registry.MustRegister(
		r.operations,
		r.treasury,
		r.httpRequests,
		r.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveOperation counts one governance call. Failures are labelled with
// their error code so rejected votes and payouts can be told apart.
func (r *Recorder) ObserveOperation(operation string, err error) {
	r.operations.WithLabelValues(operation, outcome(err)).Inc()
}

// SetTreasuryBalance exports the balance as a float. Values beyond 2^53 wei
// lose precision; the ledger itself stays exact.
func (r *Recorder) SetTreasuryBalance(wei decimal.Decimal) {
	r.treasury.Set(wei.InexactFloat64())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Middleware records request count and latency per matched route.
func (r *Recorder) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		r.httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		r.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

func outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return OutcomeUnknown
}
