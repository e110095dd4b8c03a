package analytics

import "time"

// Config holds Reporting API client configuration
type Config struct {
	BaseURL         string        `yaml:"base_url"`
	CredentialsFile string        `yaml:"credentials_file"` // service account key JSON
	ApplicationName string        `yaml:"application_name"`
	Timeout         time.Duration `yaml:"-"`
	MaxRetries      int           `yaml:"max_retries"`
}

// ReadOnlyScope is the OAuth scope needed for reports.
const ReadOnlyScope = "https://www.googleapis.com/auth/analytics.readonly"

// DefaultBaseURL is the Reporting API v4 host.
const DefaultBaseURL = "https://analyticsreporting.googleapis.com"

// ========== Request Types ==========

// GetReportsRequest is the reports:batchGet body
type GetReportsRequest struct {
	ReportRequests []ReportRequest `json:"reportRequests"`
}

// ReportRequest is one report within a batch
type ReportRequest struct {
	ViewID      string       `json:"viewId"`
	Dimensions  []Dimension  `json:"dimensions"`
	Metrics     []Metric     `json:"metrics"`
	CohortGroup *CohortGroup `json:"cohortGroup,omitempty"`
	PageSize    int          `json:"pageSize,omitempty"`
}

// Dimension names a report dimension, e.g. ga:cohort
type Dimension struct {
	Name string `json:"name"`
}

// Metric is a metric expression, e.g. ga:cohortRetentionRate
type Metric struct {
	Expression string `json:"expression"`
	Alias      string `json:"alias,omitempty"`
}

// CohortGroup holds the cohort definitions of a request
type CohortGroup struct {
	Cohorts       []Cohort `json:"cohorts"`
	LifetimeValue bool     `json:"lifetimeValue,omitempty"`
}

// Cohort is a named first-visit date range
type Cohort struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"` // FIRST_VISIT_DATE
	DateRange DateRange `json:"dateRange"`
}

// DateRange is an inclusive YYYY-MM-DD range
type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// ========== Response Types ==========

// GetReportsResponse is the reports:batchGet response
type GetReportsResponse struct {
	Reports []Report `json:"reports"`
}

// Report is one report of a batch response
type Report struct {
	ColumnHeader  ColumnHeader `json:"columnHeader"`
	Data          ReportData   `json:"data"`
	NextPageToken string       `json:"nextPageToken,omitempty"`
}

// ColumnHeader describes the dimension and metric columns
type ColumnHeader struct {
	Dimensions   []string     `json:"dimensions"`
	MetricHeader MetricHeader `json:"metricHeader"`
}

// MetricHeader lists the metric columns
type MetricHeader struct {
	MetricHeaderEntries []MetricHeaderEntry `json:"metricHeaderEntries"`
}

// MetricHeaderEntry is one metric column
type MetricHeaderEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ReportData holds the rows of a report
type ReportData struct {
	Rows         []ReportRow `json:"rows"`
	RowCount     int         `json:"rowCount"`
	IsDataGolden bool        `json:"isDataGolden"`
}

// ReportRow is one row: dimension values plus metric values per date range
type ReportRow struct {
	Dimensions []string          `json:"dimensions"`
	Metrics    []DateRangeValues `json:"metrics"`
}

// DateRangeValues holds metric values as decimal strings
type DateRangeValues struct {
	Values []string `json:"values"`
}

// ErrorResponse is the Google API error envelope
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// APIError carries the error code and message
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
