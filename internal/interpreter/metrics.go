package interpreter

import (
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/interpreter"

type metrics struct {
	frames          metric.Int64Counter
	dropped         metric.Int64Counter
	commits         metric.Int64Counter
	mutations       metric.Int64Counter
	timeouts        metric.Int64Counter
	activeSessions  metric.Int64UpDownCounter
	classifyLatency metric.Float64Histogram
	classifyErrors  metric.Int64Counter
}

var latencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &metrics{}

	if met.frames, err = m.Int64Counter("signmeup.frames",
		metric.WithDescription("Frames applied to a session engine by kind."),
	); err != nil {
		return nil, err
	}
	if met.dropped, err = m.Int64Counter("signmeup.frames.dropped",
		metric.WithDescription("Feature frames dropped while a classification was in flight."),
	); err != nil {
		return nil, err
	}
	if met.commits, err = m.Int64Counter("signmeup.commits",
		metric.WithDescription("Stable label commits by sequence outcome."),
	); err != nil {
		return nil, err
	}
	if met.mutations, err = m.Int64Counter("signmeup.sentence.mutations",
		metric.WithDescription("Sentence buffer changes by cause."),
	); err != nil {
		return nil, err
	}
	if met.timeouts, err = m.Int64Counter("signmeup.no_hand.timeouts",
		metric.WithDescription("No-hand timeouts that cleared the current label."),
	); err != nil {
		return nil, err
	}
	if met.activeSessions, err = m.Int64UpDownCounter("signmeup.active_sessions",
		metric.WithDescription("Number of live interpretation sessions."),
	); err != nil {
		return nil, err
	}
	if met.classifyLatency, err = m.Float64Histogram("signmeup.classifier.duration",
		metric.WithDescription("Latency of feature classification."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.classifyErrors, err = m.Int64Counter("signmeup.classifier.errors",
		metric.WithDescription("Classifier failures and unknown class indices."),
	); err != nil {
		return nil, err
	}
	return met, nil
}
