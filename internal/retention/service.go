// Package retention runs the cohort retention pipelines: build the cohort
// request, fetch it from the reporting API, aggregate, and format the chart.
package retention

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/cohort-retention/internal/cohort"
	"github.com/ignite/cohort-retention/internal/config"
	"github.com/ignite/cohort-retention/internal/metrics"
	"github.com/ignite/cohort-retention/internal/pkg/logger"
)

// ErrUnknownVariant is returned for a variant other than weekly or daily.
var ErrUnknownVariant = errors.New("retention: unknown report variant")

// Reporter executes a cohort report request against the reporting backend.
type Reporter interface {
	BatchGet(ctx context.Context, req cohort.ReportRequest) ([]cohort.Report, error)
}

// Service runs the weekly and daily pipelines. It holds no state between
// runs; each Run is independent.
type Service struct {
	reporter    Reporter
	builder     *cohort.Builder
	viewID      string
	callTimeout time.Duration
	weekly      config.WeeklyConfig
	daily       config.DailyConfig
}

// NewService creates a pipeline service backed by reporter
func NewService(cfg *config.Config, reporter Reporter) *Service {
	return &Service{
		reporter:    reporter,
		builder:     cohort.NewBuilder(),
		viewID:      cfg.Analytics.ViewID,
		callTimeout: cfg.Analytics.Timeout(),
		weekly:      cfg.Weekly,
		daily:       cfg.Daily,
	}
}

// SetClock replaces the clock used for cohort dates (useful for testing)
func (s *Service) SetClock(now func() time.Time) {
	s.builder = &cohort.Builder{Now: now}
}

// ParseVariant maps a variant name to its granularity.
func ParseVariant(name string) (cohort.Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "weekly", "week":
		return cohort.Weekly, nil
	case "daily", "day":
		return cohort.Daily, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
}

// Run executes the named variant and returns its chart payload.
// Any failure aborts the run; no partial payload is returned.
func (s *Service) Run(ctx context.Context, variant string) (*cohort.ChartPayload, error) {
	g, err := ParseVariant(variant)
	if err != nil {
		return nil, err
	}
	if g == cohort.Daily {
		return s.Daily(ctx)
	}
	return s.Weekly(ctx)
}

// Weekly compares the current weekly cohorts with the same cohorts shifted
// back by the previous-period shift. The two reports are fetched one after
// the other.
func (s *Service) Weekly(ctx context.Context) (payload *cohort.ChartPayload, err error) {
	runID := uuid.NewString()
	start := time.Now()
	variant := cohort.Weekly.String()
	defer func() { s.finish(runID, variant, start, err) }()

	logger.Info("retention run started", "run_id", runID, "variant", variant,
		"view_id", s.viewID, "weeks_back", s.weekly.WeeksBack, "windows", s.weekly.WindowCount)

	current, err := s.fetch(ctx, runID, cohort.Weekly, s.weekly.WeeksBack, s.weekly.WindowCount)
	if err != nil {
		return nil, fmt.Errorf("current period: %w", err)
	}
	previous, err := s.fetch(ctx, runID, cohort.Weekly, s.weekly.WeeksBack+s.weekly.PreviousPeriodShift, s.weekly.WindowCount)
	if err != nil {
		return nil, fmt.Errorf("previous period: %w", err)
	}

	return cohort.FormatWeekly(current, previous)
}

// Daily reports the average retention per day offset of the recent daily cohorts.
func (s *Service) Daily(ctx context.Context) (payload *cohort.ChartPayload, err error) {
	runID := uuid.NewString()
	start := time.Now()
	variant := cohort.Daily.String()
	defer func() { s.finish(runID, variant, start, err) }()

	logger.Info("retention run started", "run_id", runID, "variant", variant,
		"view_id", s.viewID, "days_back", s.daily.DaysBack, "anchor_offset", s.daily.AnchorOffset)

	current, err := s.fetch(ctx, runID, cohort.Daily, s.daily.AnchorOffset, s.daily.DaysBack)
	if err != nil {
		return nil, err
	}
	return cohort.FormatDaily(current), nil
}

// fetch builds, executes and aggregates one report. The collaborator call is
// bounded by the configured timeout.
func (s *Service) fetch(ctx context.Context, runID string, g cohort.Granularity, anchor, windows int) (*cohort.Result, error) {
	req, err := s.builder.Build(s.viewID, anchor, windows, g)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	callCtx := ctx
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	reports, err := s.reporter.BatchGet(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("fetching report: %w", err)
	}

	rows := 0
	for _, r := range reports {
		rows += len(r.Rows)
	}
	metrics.ReportRows.WithLabelValues(g.String()).Add(float64(rows))
	logger.Debug("report fetched", "run_id", runID, "anchor", anchor,
		"first_cohort", req.Windows[0].Name, "reports", len(reports), "rows", rows)

	result, err := cohort.Aggregate(reports)
	if err != nil {
		return nil, fmt.Errorf("aggregating report: %w", err)
	}
	return result, nil
}

func (s *Service) finish(runID, variant string, start time.Time, err error) {
	metrics.RecordRun(variant, start, err)
	if err != nil {
		logger.Error("retention run failed", "run_id", runID, "variant", variant, "error", err)
		return
	}
	logger.Info("retention run finished", "run_id", runID, "variant", variant,
		"duration_ms", time.Since(start).Milliseconds())
}
