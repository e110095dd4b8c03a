package cohort

import (
	"fmt"
	"time"
)

// dailyReferenceLag is how far behind today the newest daily cohort sits.
// Reporting data for the last two days is still incomplete.
const dailyReferenceLag = 2

// Builder produces cohort report requests relative to its clock.
type Builder struct {
	Now func() time.Time
}

// NewBuilder returns a Builder using the wall clock.
func NewBuilder() *Builder {
	return &Builder{Now: time.Now}
}

// Build returns the report request for windowCount cohorts starting
// anchorOffset periods back. The view id is passed through untouched; the
// reporting API is the one to reject it.
func (b *Builder) Build(viewID string, anchorOffset, windowCount int, g Granularity) (ReportRequest, error) {
	if windowCount < 1 {
		return ReportRequest{}, fmt.Errorf("window count must be positive, got %d", windowCount)
	}
	if anchorOffset < 0 {
		return ReportRequest{}, fmt.Errorf("anchor offset must not be negative, got %d", anchorOffset)
	}

	var windows []Window
	switch g {
	case Weekly:
		windows = WeeklyWindows(b.today(), anchorOffset, windowCount)
	case Daily:
		windows = DailyWindows(b.today(), anchorOffset, windowCount)
	default:
		return ReportRequest{}, fmt.Errorf("unsupported granularity %d", g)
	}

	return ReportRequest{
		ViewID:     viewID,
		Dimensions: []string{DimensionCohort, g.OffsetDimension()},
		Metric:     MetricRetentionRate,
		Windows:    windows,
	}, nil
}

func (b *Builder) today() time.Time {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	return startOfDay(now())
}

// WeeklyWindows returns Sunday to Saturday cohorts for the weeks
// anchor+1 .. anchor+count before the week containing today, oldest first.
// The week containing today starts on the most recent Sunday on or before today.
func WeeklyWindows(today time.Time, anchor, count int) []Window {
	currentSunday := startOfWeek(startOfDay(today))

	windows := make([]Window, 0, count)
	for i := count; i >= 1; i-- {
		start := currentSunday.AddDate(0, 0, -7*(anchor+i))
		end := start.AddDate(0, 0, 6)
		windows = append(windows, Window{
			Name:  start.Format(DateLayout) + "-" + end.Format(DateLayout),
			Start: start,
			End:   end,
			Type:  TypeFirstVisitDate,
		})
	}
	return windows
}

// DailyWindows returns count single-day cohorts ending anchor days before
// the reference date (today minus two days), newest first.
func DailyWindows(today time.Time, anchor, count int) []Window {
	reference := startOfDay(today).AddDate(0, 0, -dailyReferenceLag)

	windows := make([]Window, 0, count)
	for i := 0; i < count; i++ {
		day := reference.AddDate(0, 0, -(anchor + i))
		windows = append(windows, Window{
			Name:  day.Format(DateLayout),
			Start: day,
			End:   day,
			Type:  TypeFirstVisitDate,
		})
	}
	return windows
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfWeek(day time.Time) time.Time {
	return day.AddDate(0, 0, -int(day.Weekday()))
}
