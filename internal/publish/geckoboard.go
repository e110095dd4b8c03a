package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/cohort-retention/internal/cohort"
	"github.com/ignite/cohort-retention/internal/pkg/httpretry"
	"github.com/ignite/cohort-retention/internal/pkg/logger"
)

// GeckoboardSink pushes payloads to a custom line-chart widget
type GeckoboardSink struct {
	baseURL    string
	apiKey     string
	widgetKey  string
	httpClient httpretry.HTTPDoer
}

// pushRequest is the push API body
type pushRequest struct {
	APIKey string               `json:"api_key"`
	Data   *cohort.ChartPayload `json:"data"`
}

// NewGeckoboardSink creates a push sink for one widget
func NewGeckoboardSink(baseURL, apiKey, widgetKey string) *GeckoboardSink {
	return &GeckoboardSink{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		widgetKey: widgetKey,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: 30 * time.Second,
		}, 0),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (s *GeckoboardSink) SetHTTPClient(client httpretry.HTTPDoer) {
	s.httpClient = client
}

// Publish sends the payload to /v1/send/{widget_key}
func (s *GeckoboardSink) Publish(ctx context.Context, variant string, payload *cohort.ChartPayload) error {
	if s.apiKey == "" || s.widgetKey == "" {
		return fmt.Errorf("geckoboard: api key and widget key are required")
	}

	body, err := json.Marshal(pushRequest{APIKey: s.apiKey, Data: payload})
	if err != nil {
		return fmt.Errorf("geckoboard: failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/v1/send/%s", s.baseURL, s.widgetKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("geckoboard: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("geckoboard: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("geckoboard: push rejected (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	logger.Info("payload pushed to geckoboard", "variant", variant, "widget", s.widgetKey)
	return nil
}
