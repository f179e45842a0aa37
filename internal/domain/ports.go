package domain

// MetricsRecorder increments named counters.
// Implemented by metrics.PrometheusRecorder.
type MetricsRecorder interface {
	IncrementCounter(name string)
}
