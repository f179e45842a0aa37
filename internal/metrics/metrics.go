// Package metrics defines the sync engine's counters and a Prometheus-backed
// recorder for them.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gluesync/internal/domain"
)

// Counter names, one success and one failure counter per entity category.
const (
	DatabaseSuccess  = "listener_database_success"
	DatabaseFailure  = "listener_database_failure"
	TableSuccess     = "listener_table_success"
	TableFailure     = "listener_table_failure"
	PartitionSuccess = "listener_partition_success"
	PartitionFailure = "listener_partition_failure"
)

// Names lists every counter the engine increments.
var Names = []string{
	DatabaseSuccess, DatabaseFailure,
	TableSuccess, TableFailure,
	PartitionSuccess, PartitionFailure,
}

const namespace = "gluesync"

// PrometheusRecorder implements domain.MetricsRecorder with one Prometheus
// counter per name, registered up front so all six series exist from start.
type PrometheusRecorder struct {
	registry *prometheus.Registry
	counters map[string]prometheus.Counter
	logger   *slog.Logger
}

var _ domain.MetricsRecorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder registers the counters on a fresh registry.
func NewPrometheusRecorder(logger *slog.Logger) (*PrometheusRecorder, error) {
	reg := prometheus.NewRegistry()
	r := &PrometheusRecorder{
		registry: reg,
		counters: make(map[string]prometheus.Counter, len(Names)),
		logger:   logger,
	}
	for _, name := range Names {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name + "_total",
			Help:      "Notifications handled, by entity category and outcome.",
		})
		if err := reg.Register(c); err != nil {
			return nil, err
		}
		r.counters[name] = c
	}
	return r, nil
}

// IncrementCounter increments the named counter. Unknown names are logged
// and dropped.
func (r *PrometheusRecorder) IncrementCounter(name string) {
	c, ok := r.counters[name]
	if !ok {
		r.logger.Warn("unknown metric counter", "counter", name)
		return
	}
	c.Inc()
}

// Registry exposes the underlying registry, e.g. for tests.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
