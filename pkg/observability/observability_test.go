package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/repohealth/pkg/observability"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	assert.Equal(t, "repohealth", cfg.ServiceName)
	assert.Equal(t, observability.ModeCLI, cfg.Mode)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	level, err := observability.ParseLogLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = observability.ParseLogLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = observability.ParseLogLevel("loud")
	assert.ErrorIs(t, err, observability.ErrUnknownLogLevel)
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	assert.Nil(t, observability.ParseOTLPHeaders(""))
	assert.Nil(t, observability.ParseOTLPHeaders("garbage"))
	assert.Equal(t,
		map[string]string{"api-key": "x", "team": "core"},
		observability.ParseOTLPHeaders("api-key=x, team = core"))
}

func TestNewLogger_InjectsServiceAndTrace(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogJSON = true
	cfg.ServiceVersion = "1.2.3"

	logger := observability.NewLogger(&buf, cfg)

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.WithGroup("tool").InfoContext(ctx, "resolved", "alias", "loc")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "repohealth", record["service"])
	assert.Equal(t, "cli", record["mode"])
	assert.Equal(t, "1.2.3", record["version"])
	assert.Equal(t, traceID.String(), record["tool"].(map[string]any)["trace_id"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogLevel = slog.LevelWarn

	logger := observability.NewLogger(&buf, cfg)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}

	return nil
}

func TestRunMetrics_RecordTool(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	rm, err := observability.NewRunMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	rm.RecordTool(ctx, "loc", "ok", true, 10*time.Millisecond)
	rm.RecordTool(ctx, "doxygen", "failed", false, 2*time.Second)
	rm.RecordTool(ctx, "doxygen", "ok", false, time.Second)
	rm.RecordCheckout(ctx)

	var data metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &data))

	runs := findMetric(data, "repohealth.tool.runs.total")
	require.NotNil(t, runs)

	sum, ok := runs.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, sum.DataPoints, 3)

	hits := findMetric(data, "repohealth.cache.hits.total")
	require.NotNil(t, hits)
	assert.Equal(t, int64(1), hits.Data.(metricdata.Sum[int64]).DataPoints[0].Value)

	misses := findMetric(data, "repohealth.cache.misses.total")
	require.NotNil(t, misses)
	assert.Equal(t, int64(2), misses.Data.(metricdata.Sum[int64]).DataPoints[0].Value)

	hist := findMetric(data, "repohealth.tool.duration.seconds")
	require.NotNil(t, hist)
	assert.Len(t, hist.Data.(metricdata.Histogram[float64]).DataPoints, 2)

	require.NotNil(t, findMetric(data, "repohealth.checkouts.total"))
}

func TestRunMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var rm *observability.RunMetrics

	rm.RecordTool(context.Background(), "loc", "ok", false, time.Second)
	rm.RecordCheckout(context.Background())
}

func TestInit_NoExport_NoopProviders(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	_, span := providers.Tracer.Start(context.Background(), "x")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInit_MetricsTextfile_WrittenOnShutdown(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "metrics", "repohealth.prom")

	cfg := observability.DefaultConfig()
	cfg.MetricsTextfile = path

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	rm, err := observability.NewRunMetrics(providers.Meter)
	require.NoError(t, err)

	rm.RecordTool(context.Background(), "loc", "ok", false, time.Second)

	require.NoError(t, providers.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "repohealth_tool_runs")
	assert.Contains(t, string(data), `tool="loc"`)
}

func TestREDMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	done := red.TrackInflight(ctx, "mcp.health_series")
	red.RecordRequest(ctx, "mcp.health_series", "ok", time.Millisecond)
	red.RecordRequest(ctx, "mcp.health_series", observability.StatusError, time.Millisecond)
	done()

	var data metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &data))

	requests := findMetric(data, "repohealth.requests.total")
	require.NotNil(t, requests)
	assert.Len(t, requests.Data.(metricdata.Sum[int64]).DataPoints, 2)

	errs := findMetric(data, "repohealth.errors.total")
	require.NotNil(t, errs)
	assert.Equal(t, int64(1), errs.Data.(metricdata.Sum[int64]).DataPoints[0].Value)

	inflight := findMetric(data, "repohealth.inflight.requests")
	require.NotNil(t, inflight)
	assert.Equal(t, int64(0), inflight.Data.(metricdata.Sum[int64]).DataPoints[0].Value)
}
