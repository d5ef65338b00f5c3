package report

import (
	"slices"

	"github.com/Sumatoshi-tech/repohealth/pkg/tool"
)

// Series is the numeric history of one tool, oldest checkout first.
type Series struct {
	Alias        string      `json:"alias"`
	Descriptions []string    `json:"descriptions,omitempty"`
	Labels       []string    `json:"labels"`
	Rows         [][]float64 `json:"rows"`
}

// Width returns the number of KPI columns.
func (s Series) Width() int {
	if len(s.Rows) == 0 {
		return 0
	}

	return len(s.Rows[0])
}

// Column returns the j-th KPI across all rows.
func (s Series) Column(j int) []float64 {
	col := make([]float64, len(s.Rows))

	for i, row := range s.Rows {
		col[i] = row[j]
	}

	return col
}

// BuildSeries builds one series per tool. Rows containing a negative value are
// dropped, and every row is zero-padded to the widest row of its tool.
func BuildSeries(checkouts []Checkout, tools []tool.Descriptor) []Series {
	ordered := chronological(checkouts)
	out := make([]Series, len(tools))

	for i, d := range tools {
		s := Series{Alias: d.Alias, Descriptions: d.KPIDescriptions}
		width := 0

		for _, c := range ordered {
			if i >= len(c.Results) {
				continue
			}

			row := ParseKPIs(c.Results[i].KPI)
			if slices.ContainsFunc(row, func(v float64) bool { return v < 0 }) {
				continue
			}

			width = max(width, len(row))
			s.Labels = append(s.Labels, c.Label())
			s.Rows = append(s.Rows, row)
		}

		for j, row := range s.Rows {
			if len(row) < width {
				s.Rows[j] = append(row, make([]float64, width-len(row))...)
			}
		}

		out[i] = s
	}

	return out
}

// chronological orders checkouts oldest first.
func chronological(checkouts []Checkout) []Checkout {
	ordered := slices.Clone(checkouts)
	slices.SortStableFunc(ordered, func(a, b Checkout) int {
		return b.Back - a.Back
	})

	return ordered
}
