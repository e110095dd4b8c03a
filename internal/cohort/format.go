package cohort

import (
	"fmt"
	"strconv"

	"github.com/samber/lo"
)

// Series names of the weekly comparison chart.
const (
	SeriesCurrent  = "This month"
	SeriesPrevious = "Last month"

	axisTypeStandard = "standard"
)

// FormatWeekly renders the current period against the previous one, joined
// on offset. Offsets of the current period must run 0..N-1 and every one of
// them must exist in the previous period.
func FormatWeekly(current, previous *Result) (*ChartPayload, error) {
	offsets := current.Offsets()
	for i, offset := range offsets {
		if offset != i {
			return nil, fmt.Errorf("%w: week offsets %v are not contiguous from 0", ErrAlignment, offsets)
		}
	}

	thisPeriod := make([]float64, 0, len(offsets))
	lastPeriod := make([]float64, 0, len(offsets))
	for _, offset := range offsets {
		prev, ok := previous.Averages[offset]
		if !ok {
			return nil, fmt.Errorf("%w: previous period has no value for week offset %d", ErrAlignment, offset)
		}
		thisPeriod = append(thisPeriod, current.Averages[offset])
		lastPeriod = append(lastPeriod, prev)
	}

	return &ChartPayload{
		XAxis: XAxis{
			Labels: lo.Map(offsets, func(offset int, _ int) string {
				return "Week " + strconv.Itoa(offset+1)
			}),
			Type: axisTypeStandard,
		},
		Series: []Series{
			{Name: SeriesCurrent, Data: thisPeriod},
			{Name: SeriesPrevious, Data: lastPeriod},
		},
	}, nil
}

// FormatDaily renders a single unnamed series labelled by day offset.
func FormatDaily(current *Result) *ChartPayload {
	offsets := current.Offsets()
	return &ChartPayload{
		XAxis: XAxis{
			Labels: lo.Map(offsets, func(offset int, _ int) string {
				return "Day " + strconv.Itoa(offset)
			}),
			Type: axisTypeStandard,
		},
		Series: []Series{
			{Data: lo.Map(offsets, func(offset int, _ int) float64 {
				return current.Averages[offset]
			})},
		},
	}
}
