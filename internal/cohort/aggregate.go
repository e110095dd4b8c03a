package cohort

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Aggregate flattens report rows into per-cohort retention and the mean
// retention per offset across cohorts.
//
// A repeated (cohort, offset) pair overwrites the per-cohort value, but every
// observed value still counts towards that offset's average. Any unreadable
// row fails the whole aggregation.
func Aggregate(reports []Report) (*Result, error) {
	cohorts := make(map[string]map[int]float64)
	buckets := make(map[int][]decimal.Decimal)

	for reportIndex, report := range reports {
		for rowIndex, row := range report.Rows {
			offset, value, err := parseRow(row)
			if err != nil {
				return nil, fmt.Errorf("report %d row %d: %w", reportIndex, rowIndex, err)
			}

			if cohorts[row.CohortName] == nil {
				cohorts[row.CohortName] = make(map[int]float64)
			}
			cohorts[row.CohortName][offset] = value.InexactFloat64()
			buckets[offset] = append(buckets[offset], value)
		}
	}

	averages := make(map[int]float64, len(buckets))
	for offset, values := range buckets {
		mean, err := mean(values)
		if err != nil {
			return nil, fmt.Errorf("offset %d: %w", offset, err)
		}
		averages[offset] = mean.InexactFloat64()
	}

	return &Result{Cohorts: cohorts, Averages: averages}, nil
}

func parseRow(row Row) (int, decimal.Decimal, error) {
	offset, err := strconv.Atoi(strings.TrimSpace(row.Offset))
	if err != nil {
		return 0, decimal.Decimal{}, fmt.Errorf("%w: cohort %q offset %q is not an integer", ErrParse, row.CohortName, row.Offset)
	}
	value, err := decimal.NewFromString(strings.TrimSpace(row.Value))
	if err != nil {
		return 0, decimal.Decimal{}, fmt.Errorf("%w: cohort %q offset %d metric %q is not a number", ErrParse, row.CohortName, offset, row.Value)
	}
	return offset, value, nil
}

func mean(values []decimal.Decimal) (decimal.Decimal, error) {
	if len(values) == 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: empty averages bucket", ErrDataIntegrity)
	}
	return decimal.Sum(values[0], values[1:]...).Div(decimal.NewFromInt(int64(len(values)))), nil
}
