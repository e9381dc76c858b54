package metrics

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
	ResultSkipped  = "skipped"
)

var (
	statusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contracts",
		Name:      "status_transitions_total",
		Help:      "Contract status transitions by from/to status and result",
	}, []string{"from", "to", "result"})

	operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contracts",
		Name:      "operations_total",
		Help:      "Contract write operations by kind and result",
	}, []string{"op", "result"})

	expirySweeps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contracts",
		Name:      "expiry_sweep_contracts_total",
		Help:      "Overdue contracts handled by the expiry sweeper by result",
	}, []string{"result"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "contracts",
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"method", "route", "status"})

	registerMu sync.Mutex
	registered = map[prometheus.Registerer]bool{}
)

// ObserveTransition counts one status transition attempt.
func ObserveTransition(from, to, result string) {
	statusTransitions.WithLabelValues(from, to, result).Inc()
}

// IncOperation counts one write operation.
func IncOperation(op, result string) {
	operations.WithLabelValues(op, result).Inc()
}

// IncExpirySweep counts one contract handled by the expiry sweeper.
func IncExpirySweep(result string) {
	expirySweeps.WithLabelValues(result).Inc()
}

// ObserveRequestMs records an HTTP request duration in milliseconds.
func ObserveRequestMs(method, route, status string, value float64) {
	if value < 0 {
		value = 0
	}
	requestDuration.WithLabelValues(method, route, status).Observe(value)
}

// Register adds the collectors to registry. Calling it again with the same
// registry is a no-op.
func Register(registry prometheus.Registerer) error {
	if registry == nil {
		return nil
	}
	registerMu.Lock()
	defer registerMu.Unlock()
	if registered[registry] {
		return nil
	}
	for _, c := range []prometheus.Collector{statusTransitions, operations, expirySweeps, requestDuration} {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	registered[registry] = true
	return nil
}

// NewRegistry returns a registry with the service collectors plus the Go
// runtime and process collectors.
func NewRegistry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Handler exposes gathered metrics in Prometheus text format.
func Handler(gatherer prometheus.Gatherer) gin.HandlerFunc {
	h := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
