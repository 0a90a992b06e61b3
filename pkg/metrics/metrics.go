// Package metrics collects Prometheus metrics for table reads, writes and
// conversions.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the codec. It satisfies
// bcsv.Observer.
type Metrics struct {
	registry *prometheus.Registry

	// Codec metrics
	tablesReadTotal    *prometheus.CounterVec
	tablesWrittenTotal *prometheus.CounterVec
	bytesReadTotal     prometheus.Counter
	bytesWrittenTotal  prometheus.Counter
	operationDuration  *prometheus.HistogramVec
	degradedStrings    prometheus.Counter

	// Conversion metrics
	conversionsTotal *prometheus.CounterVec
}

// NewMetrics creates the metrics on a private registry so several
// instances can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		tablesReadTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bcsv_tables_read_total",
				Help: "Total number of tables read",
			},
			[]string{"status"},
		),

		tablesWrittenTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bcsv_tables_written_total",
				Help: "Total number of tables written",
			},
			[]string{"status"},
		),

		bytesReadTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bcsv_bytes_read_total",
				Help: "Total number of bytes read from tables",
			},
		),

		bytesWrittenTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bcsv_bytes_written_total",
				Help: "Total number of bytes of encoded tables",
			},
		),

		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bcsv_operation_duration_seconds",
				Help:    "Codec operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		degradedStrings: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bcsv_degraded_strings_total",
				Help: "Total number of string values that could not be resolved",
			},
		),

		conversionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bcsv_conversions_total",
				Help: "Total number of file conversions",
			},
			[]string{"direction", "status"},
		),
	}

	return m
}

func status(err error) string {
	if err != nil {
		return statusError
	}
	return statusSuccess
}

// ObserveRead records a table read
func (m *Metrics) ObserveRead(bytes int64, elapsed time.Duration, err error) {
	m.tablesReadTotal.WithLabelValues(status(err)).Inc()
	m.bytesReadTotal.Add(float64(bytes))
	m.operationDuration.WithLabelValues("read").Observe(elapsed.Seconds())
}

// ObserveWrite records a table write
func (m *Metrics) ObserveWrite(bytes int64, elapsed time.Duration, err error) {
	m.tablesWrittenTotal.WithLabelValues(status(err)).Inc()
	m.bytesWrittenTotal.Add(float64(bytes))
	m.operationDuration.WithLabelValues("write").Observe(elapsed.Seconds())
}

// ObserveDegradedString records a string that was left empty
func (m *Metrics) ObserveDegradedString(error) {
	m.degradedStrings.Inc()
}

// RecordConversion records one file conversion
func (m *Metrics) RecordConversion(direction string, err error, duration time.Duration) {
	m.conversionsTotal.WithLabelValues(direction, status(err)).Inc()
	m.operationDuration.WithLabelValues("convert").Observe(duration.Seconds())
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric to path in the Prometheus text format,
// for collection by the node exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
