package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ignite/cohort-retention/internal/cohort"
	"github.com/ignite/cohort-retention/internal/pkg/httpretry"
	"github.com/ignite/cohort-retention/internal/pkg/logger"
)

const batchGetEndpoint = "/v4/reports:batchGet"

// Client is the Analytics Reporting API v4 client
type Client struct {
	baseURL         string
	applicationName string
	httpClient      httpretry.HTTPDoer
}

// NewClient loads the service account key and returns a client whose
// requests carry an OAuth token for the read-only analytics scope.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	keyJSON, err := os.ReadFile(config.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: reading credentials %s: %v", ErrAuthentication, config.CredentialsFile, err)
	}

	creds, err := google.CredentialsFromJSON(ctx, keyJSON, ReadOnlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing credentials %s: %v", ErrAuthentication, config.CredentialsFile, err)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	authorized := oauth2.NewClient(ctx, creds.TokenSource)
	authorized.Timeout = timeout

	if config.MaxRetries > 0 {
		logger.Warn("analytics retries enabled; a failed report call is retried instead of aborting the run",
			"max_retries", config.MaxRetries)
	}

	logger.Info("analytics client initialized",
		"project", creds.ProjectID,
		"max_retries", config.MaxRetries)

	client := NewClientWithDoer(config.BaseURL, httpretry.NewRetryClient(authorized, config.MaxRetries))
	client.applicationName = config.ApplicationName
	return client, nil
}

// NewClientWithDoer creates a client on top of an already authorized transport
func NewClientWithDoer(baseURL string, doer httpretry.HTTPDoer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: doer,
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// BatchGet executes a single cohort report request and returns its rows
// reduced to cohort name, offset and retention value.
func (c *Client) BatchGet(ctx context.Context, req cohort.ReportRequest) ([]cohort.Report, error) {
	body := GetReportsRequest{ReportRequests: []ReportRequest{NewReportRequest(req)}}

	respBody, err := c.doRequest(ctx, http.MethodPost, batchGetEndpoint, body)
	if err != nil {
		return nil, err
	}

	var response GetReportsResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", ErrRequest, err)
	}

	return ToReports(response.Reports)
}

// NewReportRequest maps a cohort request onto the API wire format
func NewReportRequest(req cohort.ReportRequest) ReportRequest {
	dimensions := make([]Dimension, 0, len(req.Dimensions))
	for _, name := range req.Dimensions {
		dimensions = append(dimensions, Dimension{Name: name})
	}

	cohorts := make([]Cohort, 0, len(req.Windows))
	for _, w := range req.Windows {
		cohorts = append(cohorts, Cohort{
			Name: w.Name,
			Type: w.Type,
			DateRange: DateRange{
				StartDate: w.Start.Format(cohort.DateLayout),
				EndDate:   w.End.Format(cohort.DateLayout),
			},
		})
	}

	return ReportRequest{
		ViewID:      req.ViewID,
		Dimensions:  dimensions,
		Metrics:     []Metric{{Expression: req.Metric}},
		CohortGroup: &CohortGroup{Cohorts: cohorts},
	}
}

// ToReports converts API reports into the aggregator's row model. Only the
// first two dimensions and the first value of the first metric are read.
func ToReports(reports []Report) ([]cohort.Report, error) {
	out := make([]cohort.Report, 0, len(reports))
	for reportIndex, report := range reports {
		rows := make([]cohort.Row, 0, len(report.Data.Rows))
		for rowIndex, row := range report.Data.Rows {
			if len(row.Dimensions) < 2 {
				return nil, fmt.Errorf("%w: report %d row %d has %d dimensions, want 2",
					cohort.ErrParse, reportIndex, rowIndex, len(row.Dimensions))
			}
			if len(row.Metrics) == 0 || len(row.Metrics[0].Values) == 0 {
				return nil, fmt.Errorf("%w: report %d row %d has no metric value",
					cohort.ErrParse, reportIndex, rowIndex)
			}
			rows = append(rows, cohort.Row{
				CohortName: row.Dimensions[0],
				Offset:     row.Dimensions[1],
				Value:      row.Metrics[0].Values[0],
			})
		}
		out = append(out, cohort.Report{Rows: rows})
	}
	return out, nil
}

// doRequest performs an authenticated request to the Reporting API
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.applicationName != "" {
		req.Header.Set("User-Agent", c.applicationName)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: token exchange rejected: %v", ErrAuthentication, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		sentinel := ErrRequest
		if resp.StatusCode == http.StatusUnauthorized {
			sentinel = ErrAuthentication
		}
		return nil, fmt.Errorf("%w: API error (status %d): %s", sentinel, resp.StatusCode, apiErrorMessage(respBody))
	}

	return respBody, nil
}

func apiErrorMessage(body []byte) string {
	var envelope ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return strings.TrimSpace(string(body))
}
