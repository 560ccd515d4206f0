package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DigestMetrics records digest runs.
type DigestMetrics struct {
	runs        metric.Int64Counter
	properties  metric.Int64Histogram
	unavailable metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewDigestMetrics creates the digest instruments on meter.
func NewDigestMetrics(meter metric.Meter) (*DigestMetrics, error) {
	runs, err := meter.Int64Counter("homescout.digest.runs",
		metric.WithDescription("Digest runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	properties, err := meter.Int64Histogram("homescout.digest.properties",
		metric.WithDescription("Properties per digest"),
		metric.WithUnit("{property}"),
	)
	if err != nil {
		return nil, err
	}

	unavailable, err := meter.Int64Counter("homescout.digest.commute_unavailable",
		metric.WithDescription("Properties without a computed commute"),
		metric.WithUnit("{property}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("homescout.digest.duration",
		metric.WithDescription("Digest run duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &DigestMetrics{
		runs:        runs,
		properties:  properties,
		unavailable: unavailable,
		duration:    duration,
	}, nil
}

// RecordRun records one run. properties and unavailable are ignored on failure.
func (m *DigestMetrics) RecordRun(ctx context.Context, trigger string, elapsed time.Duration, properties, unavailable int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("trigger", trigger),
		attribute.String("outcome", outcome),
	)

	m.runs.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	if err == nil {
		m.properties.Record(ctx, int64(properties))
		m.unavailable.Add(ctx, int64(unavailable))
	}
}
