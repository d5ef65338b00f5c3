package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/repohealth/pkg/cache"
	"github.com/Sumatoshi-tech/repohealth/pkg/report"
)

// Tool names.
const (
	ToolNameCheckouts = "health_checkouts"
	ToolNameSeries    = "health_series"
)

// Sentinel errors for tool input validation.
var (
	ErrEmptyOutputDir       = errors.New("output_dir parameter is required and must not be empty")
	ErrOutputDirNotAbsolute = errors.New("output_dir must be an absolute path")
	ErrNoDashboard          = errors.New("no rendered dashboard in output_dir")
	ErrUnknownAlias         = errors.New("unknown tool alias")
)

// CheckoutsInput is the input schema for health_checkouts.
type CheckoutsInput struct {
	OutputDir    string `json:"output_dir"              jsonschema:"absolute path of the dashboard output directory"`
	Refresh      bool   `json:"refresh,omitempty"       jsonschema:"re-read every KPI from the result cache"`
	IncludedOnly bool   `json:"included_only,omitempty" jsonschema:"only checkouts with at least one positive KPI"`
}

// SeriesInput is the input schema for health_series.
type SeriesInput struct {
	OutputDir string `json:"output_dir"      jsonschema:"absolute path of the dashboard output directory"`
	Alias     string `json:"alias,omitempty" jsonschema:"tool alias (default: all tools)"`
	Refresh   bool   `json:"refresh,omitempty" jsonschema:"re-read every KPI from the result cache"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// ResultView is one tool result of a checkout.
type ResultView struct {
	Alias  string `json:"alias"`
	KPI    string `json:"kpi"`
	Status string `json:"status"`
	Cached bool   `json:"cached"`
}

// CheckoutView is one checkout of the dashboard.
type CheckoutView struct {
	Checkout string       `json:"checkout"`
	Hash     string       `json:"hash"`
	Date     string       `json:"date"`
	Included bool         `json:"included"`
	Results  []ResultView `json:"results"`
}

// CheckoutsView is the health_checkouts result.
type CheckoutsView struct {
	Title     string         `json:"title"`
	Generated string         `json:"generated"`
	Checkouts []CheckoutView `json:"checkouts"`
	// Cached lists every commit with a cache directory, shown or not.
	Cached []string `json:"cached_commits"`
}

func handleCheckouts(
	_ context.Context, _ *mcpsdk.CallToolRequest, input CheckoutsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	manifest, err := loadManifest(input.OutputDir, input.Refresh)
	if err != nil {
		return errorResult(err)
	}

	view := CheckoutsView{
		Title:     manifest.Title,
		Generated: manifest.Generated.Format("2006-01-02 15:04:05"),
		Checkouts: make([]CheckoutView, 0, len(manifest.Checkouts)),
	}

	for _, c := range manifest.Checkouts {
		included := report.Include(c)
		if input.IncludedOnly && !included {
			continue
		}

		cv := CheckoutView{Checkout: c.Label(), Hash: c.Hash, Date: c.Date, Included: included}
		for _, r := range c.Results {
			cv.Results = append(cv.Results, ResultView{
				Alias:  r.Alias,
				KPI:    r.KPI,
				Status: r.Status(false),
				Cached: r.Cached,
			})
		}

		view.Checkouts = append(view.Checkouts, cv)
	}

	view.Cached, err = cache.New(input.OutputDir).Hashes()
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(view)
}

func handleSeries(
	_ context.Context, _ *mcpsdk.CallToolRequest, input SeriesInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	manifest, err := loadManifest(input.OutputDir, input.Refresh)
	if err != nil {
		return errorResult(err)
	}

	series := report.BuildSeries(report.Included(manifest.Checkouts), manifest.Tools)
	if input.Alias == "" {
		return jsonResult(series)
	}

	for _, s := range series {
		if s.Alias == input.Alias {
			return jsonResult(s)
		}
	}

	return errorResult(fmt.Errorf("%w: %s", ErrUnknownAlias, input.Alias))
}

func loadManifest(outputDir string, refresh bool) (*report.Manifest, error) {
	if outputDir == "" {
		return nil, ErrEmptyOutputDir
	}

	if !filepath.IsAbs(outputDir) {
		return nil, fmt.Errorf("%w: %s", ErrOutputDirNotAbsolute, outputDir)
	}

	manifest, err := report.LoadManifest(outputDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoDashboard, outputDir)
	}

	if err != nil {
		return nil, err
	}

	if refresh {
		_, err = manifest.Refresh(cache.New(outputDir))
		if err != nil {
			return nil, fmt.Errorf("refresh from cache: %w", err)
		}
	}

	return manifest, nil
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}
