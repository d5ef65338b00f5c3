package report

import (
	"fmt"
	"html/template"
	"io"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/repohealth/pkg/cache"
	"github.com/Sumatoshi-tech/repohealth/pkg/plotpage"
	"github.com/Sumatoshi-tech/repohealth/pkg/safeconv"
	"github.com/Sumatoshi-tech/repohealth/pkg/tool"
)

// Fixed leading columns of the checkout table.
const (
	ColumnCommit = "Commit"
	ColumnDate   = "Date"
)

// TrendDir holds the per-tool trend pages, relative to the output directory.
const TrendDir = "img"

// TrendPage returns the trend page of a tool relative to the output directory.
func TrendPage(alias string) string {
	return path.Join(TrendDir, alias+".html")
}

// ArtifactRef is one artifact marker in a cell.
type ArtifactRef struct {
	Label string
	Href  string
	// Title is the humanized artifact size, when known.
	Title string
}

// Cell is one tool result in the checkout table.
type Cell struct {
	KPI       string
	Artifacts []ArtifactRef
}

// SizeFunc reports the size of a relocated artifact.
type SizeFunc func(hash, artifact string) (int64, bool)

// NewCell builds the cell for a tool result. Artifact markers carry links only
// when the leading KPI is strictly positive.
func NewCell(d tool.Descriptor, hash, kpi string, size SizeFunc) Cell {
	value, ok := LeadingKPI(kpi)
	linked := ok && value > 0

	cell := Cell{KPI: kpi, Artifacts: make([]ArtifactRef, len(d.Artifacts))}

	for i, artifact := range d.Artifacts {
		ref := ArtifactRef{Label: fmt.Sprintf("-%d-", i+1)}

		if linked {
			ref.Href = cache.ArtifactLink(hash, artifact)

			if size != nil {
				if n, known := size(hash, artifact); known {
					ref.Title = humanize.Bytes(safeconv.MustInt64ToUint64(n))
				}
			}
		}

		cell.Artifacts[i] = ref
	}

	return cell
}

// HTML renders the cell with artifact links.
func (c Cell) HTML() template.HTML {
	var b strings.Builder

	for _, ref := range c.Artifacts {
		if ref.Href != "" {
			b.WriteString(string(plotpage.Link(ref.Href, ref.Title, ref.Label)))
		} else {
			b.WriteString(template.HTMLEscapeString(ref.Label))
		}

		b.WriteByte(' ')
	}

	text := template.HTMLEscapeString(c.KPI)
	if value, ok := LeadingKPI(c.KPI); ok && value < 0 {
		text = `<span class="code-error">` + text + `</span>`
	}

	b.WriteString(text)

	return template.HTML(b.String())
}

// Row is one checkout in the table.
type Row struct {
	Hash  string
	Date  string
	Cells []Cell
}

// Table lays out checkouts as rows of Commit, Date and one cell per tool.
func Table(checkouts []Checkout, tools []tool.Descriptor, size SizeFunc) []Row {
	rows := make([]Row, len(checkouts))

	for i, c := range checkouts {
		row := Row{Hash: c.Hash, Date: c.Date, Cells: make([]Cell, len(tools))}

		for j, d := range tools {
			kpi := ""
			if j < len(c.Results) {
				kpi = c.Results[j].KPI
			}

			row.Cells[j] = NewCell(d, c.Hash, kpi, size)
		}

		rows[i] = row
	}

	return rows
}

// Header returns the plain column titles.
func Header(tools []tool.Descriptor) []string {
	return append([]string{ColumnCommit, ColumnDate}, tool.Aliases(tools)...)
}

// HTMLTable renders rows as a dashboard table whose tool headers link to
// the trend pages.
func HTMLTable(rows []Row, tools []tool.Descriptor) *plotpage.Table {
	headers := []template.HTML{plotpage.Text(ColumnCommit), plotpage.Text(ColumnDate)}
	for _, d := range tools {
		headers = append(headers, plotpage.Link(TrendPage(d.Alias), "", d.Alias))
	}

	t := plotpage.NewTable(headers...)

	for _, row := range rows {
		cells := []template.HTML{plotpage.Text(row.Hash), plotpage.Text(row.Date)}
		for _, cell := range row.Cells {
			cells = append(cells, cell.HTML())
		}

		t.AddRow(cells...)
	}

	return t
}

// WriteText renders rows as a terminal table.
func WriteText(w io.Writer, rows []Row, tools []tool.Descriptor) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	header := table.Row{}
	for _, h := range Header(tools) {
		header = append(header, h)
	}

	tw.AppendHeader(header)

	for _, row := range rows {
		r := table.Row{row.Hash, row.Date}
		for _, cell := range row.Cells {
			r = append(r, cell.KPI)
		}

		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(tools))
	for i := range tools {
		configs = append(configs, table.ColumnConfig{Number: i + 3, Align: text.AlignRight})
	}

	tw.SetColumnConfigs(configs)
	tw.Render()
}
