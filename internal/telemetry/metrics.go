// Package telemetry provides logging setup and Prometheus metrics for the registration probe.
//
// # Metrics
//
// The probe is a batch job: it runs once and exits, so nothing scrapes it. Metrics are
// registered on a dedicated Registry (not the default one, which would drag the Go
// runtime and process collectors along) and pushed to a Prometheus Pushgateway when
// metrics.pushgateway_url is configured:
//
//	telemetry.ObserveProbe(probe.Outcome(err), statusCode, time.Since(start))
//	telemetry.PushMetrics(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job)
//
// Example PromQL queries:
//   - Failing probes:      increase(registration_probe_requests_total{outcome!="success"}[1h]) > 0
//   - Latest status code:  registration_probe_last_status_code
//   - Probe latency:       registration_probe_duration_seconds_sum / registration_probe_duration_seconds_count
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry holds every probe metric.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// ProbeRequestsTotal is a CounterVec with label {outcome}: success, transport_error,
// status_error or decode_error.
//
// ProbeDuration observes the wall time of one registration request, from send to
// the end of the response body.
//
// ProbeLastStatusCode holds the HTTP status of the latest run, or 0 when no response
// was received at all.
var (
	ProbeRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_probe_requests_total",
			Help: "Total number of registration probe runs, by outcome.",
		},
		[]string{"outcome"},
	)

	ProbeDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "registration_probe_duration_seconds",
			Help:    "Duration of a registration probe request.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ProbeLastStatusCode = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "registration_probe_last_status_code",
			Help: "HTTP status code returned to the latest registration probe run (0 if none).",
		},
	)
)

// ObserveProbe records one probe run.
func ObserveProbe(outcome string, statusCode int, took time.Duration) {
	ProbeRequestsTotal.WithLabelValues(outcome).Inc()
	ProbeDuration.Observe(took.Seconds())
	ProbeLastStatusCode.Set(float64(statusCode))
}

// PushMetrics pushes Registry to the Pushgateway at url under job, replacing any
// metrics previously pushed for that job.
func PushMetrics(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
