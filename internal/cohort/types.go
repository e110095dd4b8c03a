// Package cohort builds Reporting API cohort requests, aggregates the
// returned retention rows per offset, and renders the dashboard chart.
package cohort

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

// Reporting API v4 names used in every cohort request.
const (
	DimensionCohort        = "ga:cohort"
	DimensionCohortNthWeek = "ga:cohortNthWeek"
	DimensionCohortNthDay  = "ga:cohortNthDay"
	MetricRetentionRate    = "ga:cohortRetentionRate"

	// TypeFirstVisitDate anchors a cohort on the users' first visit.
	TypeFirstVisitDate = "FIRST_VISIT_DATE"

	DateLayout = "2006-01-02"
)

// Granularity selects week- or day-based cohorts and offsets.
type Granularity int

const (
	Weekly Granularity = iota
	Daily
)

// String returns the variant name used in config, logs and URLs.
func (g Granularity) String() string {
	switch g {
	case Weekly:
		return "weekly"
	case Daily:
		return "daily"
	default:
		return "unknown"
	}
}

// OffsetDimension returns the nth-period dimension for the granularity.
func (g Granularity) OffsetDimension() string {
	if g == Daily {
		return DimensionCohortNthDay
	}
	return DimensionCohortNthWeek
}

// Window is one cohort definition: users whose first visit falls in [Start, End].
type Window struct {
	Name  string
	Start time.Time
	End   time.Time
	Type  string
}

// ReportRequest describes a single cohort report.
type ReportRequest struct {
	ViewID     string
	Dimensions []string
	Metric     string
	Windows    []Window
}

// Report is a collaborator report reduced to the fields the aggregator reads.
type Report struct {
	Rows []Row
}

// Row holds the raw dimension and metric strings of one report row.
type Row struct {
	CohortName string
	Offset     string
	Value      string
}

// Result is the aggregated retention for one report run.
type Result struct {
	// Cohorts maps cohort name to offset to retention rate.
	Cohorts map[string]map[int]float64
	// Averages maps offset to the mean retention rate across cohorts.
	Averages map[int]float64
}

// Offsets returns the offsets present in Averages, ascending.
func (r *Result) Offsets() []int {
	keys := lo.Keys(r.Averages)
	slices.Sort(keys)
	return keys
}

// ChartPayload is the line-chart widget document.
type ChartPayload struct {
	XAxis  XAxis    `json:"x_axis"`
	Series []Series `json:"series"`
}

// XAxis holds the category labels of the chart.
type XAxis struct {
	Labels []string `json:"labels"`
	Type   string   `json:"type,omitempty"`
}

// Series is one plotted line.
type Series struct {
	Name string    `json:"name,omitempty"`
	Data []float64 `json:"data"`
}
