package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricToolRuns     = "repohealth.tool.runs.total"
	metricToolDuration = "repohealth.tool.duration.seconds"
	metricCacheHits    = "repohealth.cache.hits.total"
	metricCacheMisses  = "repohealth.cache.misses.total"
	metricCheckouts    = "repohealth.checkouts.total"

	metricRequestsTotal    = "repohealth.requests.total"
	metricRequestDuration  = "repohealth.request.duration.seconds"
	metricErrorsTotal      = "repohealth.errors.total"
	metricInflightRequests = "repohealth.inflight.requests"

	attrTool   = "tool"
	attrStatus = "status"
	attrOp     = "op"

	// StatusError marks a failed request.
	StatusError = "error"
)

// durationBucketBoundaries covers 10ms to 1h: from cached lookups to full
// dynamic-analysis runs.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600}

// RunMetrics holds the OTel instruments of a health run.
type RunMetrics struct {
	toolRuns     metric.Int64Counter
	toolDuration metric.Float64Histogram
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
	checkouts    metric.Int64Counter
}

// NewRunMetrics creates the run instruments from mt.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &RunMetrics{
		toolRuns:     b.counter(metricToolRuns, "Tool results by tool and status", "{run}"),
		toolDuration: b.histogram(metricToolDuration, "Per-tool wall time in seconds", "s", durationBucketBoundaries...),
		cacheHits:    b.counter(metricCacheHits, "Tool results served from the cache", "{hit}"),
		cacheMisses:  b.counter(metricCacheMisses, "Tool results that had to be processed", "{miss}"),
		checkouts:    b.counter(metricCheckouts, "Checkouts visited", "{checkout}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// RecordTool records one tool result. Safe to call on a nil receiver.
func (rm *RunMetrics) RecordTool(ctx context.Context, tool, status string, cached bool, duration time.Duration) {
	if rm == nil {
		return
	}

	toolAttr := attribute.String(attrTool, tool)

	rm.toolRuns.Add(ctx, 1, metric.WithAttributes(toolAttr, attribute.String(attrStatus, status)))
	rm.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(toolAttr))

	if cached {
		rm.cacheHits.Add(ctx, 1, metric.WithAttributes(toolAttr))
	} else {
		rm.cacheMisses.Add(ctx, 1, metric.WithAttributes(toolAttr))
	}
}

// RecordCheckout counts a visited checkout. Safe to call on a nil receiver.
func (rm *RunMetrics) RecordCheckout(ctx context.Context) {
	if rm == nil {
		return
	}

	rm.checkouts.Add(ctx, 1)
}

// REDMetrics holds Rate, Error, Duration instruments for served requests.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from mt.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &REDMetrics{
		requestsTotal:    b.counter(metricRequestsTotal, "Total number of requests", "{request}"),
		requestDuration:  b.histogram(metricRequestDuration, "Request duration in seconds", "s", durationBucketBoundaries...),
		errorsTotal:      b.counter(metricErrorsTotal, "Total number of errors", "{error}"),
		inflightRequests: b.upDownCounter(metricInflightRequests, "Number of in-flight requests", "{request}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// RecordRequest records a completed request with its operation, status and duration.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// metricBuilder accumulates instrument creation errors so a set of
// instruments needs a single error check.
type metricBuilder struct {
	meter metric.Meter
	err   error
}

func newMetricBuilder(mt metric.Meter) *metricBuilder {
	return &metricBuilder{meter: mt}
}

func (b *metricBuilder) counter(name, desc, unit string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.setErr(name, err)

	return c
}

func (b *metricBuilder) histogram(name, desc, unit string, bounds ...float64) metric.Float64Histogram {
	h, err := b.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit(unit),
		metric.WithExplicitBucketBoundaries(bounds...),
	)
	b.setErr(name, err)

	return h
}

func (b *metricBuilder) upDownCounter(name, desc, unit string) metric.Int64UpDownCounter {
	c, err := b.meter.Int64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.setErr(name, err)

	return c
}

func (b *metricBuilder) setErr(name string, err error) {
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
}
