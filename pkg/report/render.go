package report

import (
	"fmt"
	"time"

	"github.com/Sumatoshi-tech/repohealth/pkg/cache"
	"github.com/Sumatoshi-tech/repohealth/pkg/plotpage"
	"github.com/Sumatoshi-tech/repohealth/pkg/tool"
)

const indexDescription = "Each column is an analysis tool run against the last commits of the branch."

var legend = plotpage.Hint{
	Title: "Reading the table",
	Items: []string{
		"Column headers link to plots of each tool's KPIs (Key Performance Indicators) over time.",
		"The cell markers -1-, -2- link to the tool's artifacts. Hover a marker for its size.",
		"The numbers are the KPIs. Negative numbers are error codes: " +
			"-1 the tool failed, -2 an artifact was missing after the run, -3 a cached artifact is missing.",
		"Unpack .txz artifacts with: tar -xvf artifact.txt.txz",
	},
}

// Renderer writes the dashboard into an output directory.
type Renderer struct {
	OutputDir string
	Title     string
	Theme     plotpage.Theme
	// Store supplies artifact sizes; nil omits them.
	Store *cache.Store
	Now   func() time.Time
}

// Render writes index.html, one trend page per tool and the manifest. Only
// checkouts passing Include reach the dashboard; the manifest keeps them all.
func (r *Renderer) Render(checkouts []Checkout, tools []tool.Descriptor) error {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	generated := now()

	pages := &plotpage.MultiPageRenderer{
		OutputDir: r.OutputDir,
		Title:     r.Title,
		Theme:     r.Theme,
		Generated: generated,
	}

	shown := Included(checkouts)

	for _, s := range BuildSeries(shown, tools) {
		err := pages.RenderPage(TrendPage(s.Alias), s.Alias, "KPI trend over the last checkouts.",
			[]plotpage.Section{r.trendSection(s)})
		if err != nil {
			return fmt.Errorf("render trend %s: %w", s.Alias, err)
		}
	}

	var size SizeFunc
	if r.Store != nil {
		size = r.Store.ArtifactSize
	}

	rows := Table(shown, tools, size)

	err := pages.RenderIndex(indexDescription, []plotpage.Section{{
		Title:    "Checkouts",
		Subtitle: fmt.Sprintf("%d checkouts with results", len(rows)),
		Chart:    HTMLTable(rows, tools),
		Hint:     legend,
	}})
	if err != nil {
		return fmt.Errorf("render index: %w", err)
	}

	return SaveManifest(r.OutputDir, &Manifest{
		Title:     r.Title,
		Generated: generated,
		Tools:     tools,
		Checkouts: checkouts,
	})
}

func (r *Renderer) trendSection(s Series) plotpage.Section {
	if len(s.Rows) == 0 {
		return plotpage.Section{
			Title: s.Alias,
			Chart: plotpage.RawHTML(`<p class="muted">No successful results to plot.</p>`),
		}
	}

	series := make([]plotpage.LineSeries, s.Width())

	for j := range series {
		data := make([]plotpage.SeriesData, len(s.Rows))
		for i, v := range s.Column(j) {
			data[i] = v
		}

		series[j] = plotpage.LineSeries{Name: seriesName(s.Descriptions, j), Data: data}
	}

	chart := plotpage.BuildLineChart(plotpage.NewChartOpts(r.Theme), s.Labels, series, "KPI")

	return plotpage.Section{
		Title:    s.Alias,
		Subtitle: fmt.Sprintf("%d of the checkouts produced plottable KPIs", len(s.Rows)),
		Chart:    chart,
	}
}

func seriesName(descriptions []string, j int) string {
	if j < len(descriptions) && descriptions[j] != "" {
		return descriptions[j]
	}

	return fmt.Sprintf("KPI %d", j+1)
}
