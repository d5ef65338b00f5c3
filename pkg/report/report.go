// Package report aggregates per-checkout tool results into the dashboard
// table, trend series and their HTML and text renderings.
package report

import (
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/repohealth/pkg/checkout"
	"github.com/Sumatoshi-tech/repohealth/pkg/collect"
)

// Checkout is one historical checkout with its tool results in tool order.
type Checkout struct {
	checkout.Commit

	Results []collect.Result `json:"results"`
}

// KPIs returns the KPI strings in tool order.
func (c Checkout) KPIs() []string {
	kpis := make([]string, len(c.Results))

	for i, r := range c.Results {
		kpis[i] = r.KPI
	}

	return kpis
}

// LeadingKPI parses the first whitespace-separated token of a KPI string.
func LeadingKPI(kpi string) (float64, bool) {
	fields := strings.Fields(kpi)
	if len(fields) == 0 {
		return 0, false
	}

	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}

	return value, true
}

// Include reports whether a checkout belongs in the report: at least one
// tool's leading KPI is strictly positive.
func Include(c Checkout) bool {
	for _, r := range c.Results {
		if value, ok := LeadingKPI(r.KPI); ok && value > 0 {
			return true
		}
	}

	return false
}

// ParseKPIs parses every token of a KPI string; unparsable tokens become 0.
func ParseKPIs(kpi string) []float64 {
	fields := strings.Fields(kpi)
	values := make([]float64, len(fields))

	for i, field := range fields {
		value, err := strconv.ParseFloat(field, 64)
		if err == nil {
			values[i] = value
		}
	}

	return values
}
