package cohort

import (
	"fmt"
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateDailyScenario(t *testing.T) {
	reports := []Report{{Rows: []Row{
		{CohortName: "2024-01-01", Offset: "0000", Value: "50.0"},
		{CohortName: "2024-01-02", Offset: "0000", Value: "70.0"},
		{CohortName: "2024-01-01", Offset: "0001", Value: "30.0"},
	}}}

	result, err := Aggregate(reports)
	require.NoError(t, err)

	assert.Equal(t, map[int]float64{0: 60.0, 1: 30.0}, result.Averages)
	assert.Equal(t, map[string]map[int]float64{
		"2024-01-01": {0: 50.0, 1: 30.0},
		"2024-01-02": {0: 70.0},
	}, result.Cohorts)
	assert.Equal(t, []int{0, 1}, result.Offsets())
}

func TestAggregateAcrossReports(t *testing.T) {
	reports := []Report{
		{Rows: []Row{{CohortName: "a", Offset: "0", Value: "100"}}},
		{Rows: []Row{{CohortName: "b", Offset: "0", Value: "20"}, {CohortName: "b", Offset: "2", Value: "5.5"}}},
	}

	result, err := Aggregate(reports)
	require.NoError(t, err)

	assert.Equal(t, 60.0, result.Averages[0])
	assert.Equal(t, 5.5, result.Averages[2])
	assert.Equal(t, []int{0, 2}, result.Offsets())
}

func TestAggregateDuplicateRowLastWriteWins(t *testing.T) {
	reports := []Report{{Rows: []Row{
		{CohortName: "a", Offset: "0", Value: "10"},
		{CohortName: "a", Offset: "0", Value: "30"},
	}}}

	result, err := Aggregate(reports)
	require.NoError(t, err)

	assert.Equal(t, 30.0, result.Cohorts["a"][0])
	// both observations still feed the average
	assert.Equal(t, 20.0, result.Averages[0])
}

func TestAggregateMalformedMetric(t *testing.T) {
	reports := []Report{{Rows: []Row{
		{CohortName: "a", Offset: "0", Value: "50.0"},
		{CohortName: "b", Offset: "0", Value: "N/A"},
	}}}

	result, err := Aggregate(reports)
	assert.Nil(t, result)
	require.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), "N/A")
}

func TestAggregateMalformedOffset(t *testing.T) {
	_, err := Aggregate([]Report{{Rows: []Row{{CohortName: "a", Offset: "first", Value: "1"}}}})
	assert.ErrorIs(t, err, ErrParse)
}

func TestAggregateEmpty(t *testing.T) {
	result, err := Aggregate(nil)
	require.NoError(t, err)
	assert.Empty(t, result.Averages)
	assert.Empty(t, result.Cohorts)
	assert.Empty(t, result.Offsets())
}

func TestMeanEmptyBucket(t *testing.T) {
	_, err := mean(nil)
	assert.ErrorIs(t, err, ErrDataIntegrity)
}

func randomReports(r *rand.Rand) []Report {
	var reports []Report
	reportCount := 1 + r.Intn(3)
	for rep := 0; rep < reportCount; rep++ {
		var rows []Row
		cohortCount := 1 + r.Intn(5)
		for c := 0; c < cohortCount; c++ {
			name := fmt.Sprintf("r%d-c%d", rep, c)
			weeks := 1 + r.Intn(6)
			for offset := 0; offset < weeks; offset++ {
				rows = append(rows, Row{
					CohortName: name,
					Offset:     strconv.Itoa(offset),
					Value:      strconv.FormatFloat(r.Float64()*100, 'f', 4, 64),
				})
			}
		}
		reports = append(reports, Report{Rows: rows})
	}
	return reports
}

func TestAggregateProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		reports := randomReports(r)

		result, err := Aggregate(reports)
		require.NoError(t, err)

		// averages[k] is the mean of cohorts[*][k]
		sums := map[int]float64{}
		counts := map[int]int{}
		for _, offsets := range result.Cohorts {
			for offset, v := range offsets {
				sums[offset] += v
				counts[offset]++
			}
		}
		require.Len(t, result.Averages, len(sums), "offset keys must match")
		for offset, sum := range sums {
			avg, ok := result.Averages[offset]
			require.True(t, ok, "offset %d missing from averages", offset)
			assert.InDelta(t, sum/float64(counts[offset]), avg, 1e-9)
		}

		// idempotent
		again, err := Aggregate(reports)
		require.NoError(t, err)
		assert.Equal(t, result, again)
	}
}
