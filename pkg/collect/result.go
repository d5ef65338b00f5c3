package collect

import (
	"context"
	"time"

	"github.com/Sumatoshi-tech/repohealth/pkg/cache"
	"github.com/Sumatoshi-tech/repohealth/pkg/checkout"
)

// Result statuses used for metrics and the run ledger.
const (
	StatusOK                    = "ok"
	StatusFailed                = "failed"
	StatusArtifactMissing       = "artifact_missing"
	StatusCachedArtifactMissing = "cached_artifact_missing"
	StatusReportOnly            = "report_only"
)

// Result is the outcome of one tool at one checkout.
type Result struct {
	// Tool is the executable name keying the cache file.
	Tool string `json:"tool"`
	// Alias is the display alias.
	Alias string `json:"alias"`
	// KPI is the whitespace-separated KPI string or a result code.
	KPI string `json:"kpi"`
	// Cached is true when the KPI came from the cache without reprocessing.
	Cached bool `json:"cached"`
	// Duration is the wall time spent on the tool, including cache handling.
	Duration time.Duration `json:"duration"`
}

// Status classifies the result.
func (r Result) Status(reportOnly bool) string {
	switch r.KPI {
	case cache.CodeFailed:
		return StatusFailed
	case cache.CodeArtifactMissing:
		return StatusArtifactMissing
	case cache.CodeCachedArtifactMissing:
		return StatusCachedArtifactMissing
	}

	if reportOnly && !r.Cached {
		return StatusReportOnly
	}

	return StatusOK
}

// Observer is notified after every tool result is persisted.
type Observer interface {
	ObserveTool(ctx context.Context, commit checkout.Commit, result Result)
}

// ToolRecorder receives per-tool measurements.
type ToolRecorder interface {
	RecordTool(ctx context.Context, tool, status string, cached bool, duration time.Duration)
}

// MetricsObserver adapts a ToolRecorder to an Observer.
type MetricsObserver struct {
	Recorder   ToolRecorder
	ReportOnly bool
}

// ObserveTool implements Observer.
func (m MetricsObserver) ObserveTool(ctx context.Context, _ checkout.Commit, r Result) {
	if m.Recorder == nil {
		return
	}

	m.Recorder.RecordTool(ctx, r.Alias, r.Status(m.ReportOnly), r.Cached, r.Duration)
}
