package cohort

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatWeekly(t *testing.T) {
	current := &Result{Averages: map[int]float64{0: 40.0, 1: 20.0, 2: 10.0}}
	previous := &Result{Averages: map[int]float64{0: 44.0, 1: 22.0, 2: 11.0}}

	payload, err := FormatWeekly(current, previous)
	require.NoError(t, err)

	assert.Equal(t, []string{"Week 1", "Week 2", "Week 3"}, payload.XAxis.Labels)
	assert.Equal(t, "standard", payload.XAxis.Type)
	require.Len(t, payload.Series, 2)
	assert.Equal(t, Series{Name: "This month", Data: []float64{40.0, 20.0, 10.0}}, payload.Series[0])
	assert.Equal(t, Series{Name: "Last month", Data: []float64{44.0, 22.0, 11.0}}, payload.Series[1])
}

func TestFormatWeeklyIgnoresExtraPreviousOffsets(t *testing.T) {
	current := &Result{Averages: map[int]float64{0: 40.0}}
	previous := &Result{Averages: map[int]float64{0: 44.0, 1: 22.0}}

	payload, err := FormatWeekly(current, previous)
	require.NoError(t, err)
	assert.Equal(t, []string{"Week 1"}, payload.XAxis.Labels)
	assert.Equal(t, []float64{44.0}, payload.Series[1].Data)
}

func TestFormatWeeklyShortPreviousPeriod(t *testing.T) {
	current := &Result{Averages: map[int]float64{0: 40.0, 1: 20.0, 2: 10.0}}
	previous := &Result{Averages: map[int]float64{0: 44.0, 1: 22.0}}

	payload, err := FormatWeekly(current, previous)
	assert.Nil(t, payload)
	require.ErrorIs(t, err, ErrAlignment)
	assert.Contains(t, err.Error(), "offset 2")
}

func TestFormatWeeklyGap(t *testing.T) {
	current := &Result{Averages: map[int]float64{0: 40.0, 2: 10.0}}
	previous := &Result{Averages: map[int]float64{0: 44.0, 1: 22.0, 2: 11.0}}

	_, err := FormatWeekly(current, previous)
	assert.ErrorIs(t, err, ErrAlignment)
}

func TestFormatDaily(t *testing.T) {
	current := &Result{Averages: map[int]float64{1: 30.0, 0: 60.0}}

	payload := FormatDaily(current)

	assert.Equal(t, []string{"Day 0", "Day 1"}, payload.XAxis.Labels)
	require.Len(t, payload.Series, 1)
	assert.Empty(t, payload.Series[0].Name)
	assert.Equal(t, []float64{60.0, 30.0}, payload.Series[0].Data)
}

func TestFormatDailySparseOffsets(t *testing.T) {
	payload := FormatDaily(&Result{Averages: map[int]float64{3: 1.5, 1: 2.5, 10: 0.5}})
	assert.Equal(t, []string{"Day 1", "Day 3", "Day 10"}, payload.XAxis.Labels)
	assert.Equal(t, []float64{2.5, 1.5, 0.5}, payload.Series[0].Data)
}

func TestDailyEndToEnd(t *testing.T) {
	result, err := Aggregate([]Report{{Rows: []Row{
		{CohortName: "2024-01-01", Offset: "0", Value: "50.0"},
		{CohortName: "2024-01-02", Offset: "0", Value: "70.0"},
		{CohortName: "2024-01-01", Offset: "1", Value: "30.0"},
	}}})
	require.NoError(t, err)

	data, err := json.Marshal(FormatDaily(result))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x_axis":{"labels":["Day 0","Day 1"],"type":"standard"},"series":[{"data":[60,30]}]}`, string(data))
}

func TestWeeklyPayloadJSON(t *testing.T) {
	payload, err := FormatWeekly(
		&Result{Averages: map[int]float64{0: 40.0, 1: 20.0}},
		&Result{Averages: map[int]float64{0: 44.0, 1: 22.0}},
	)
	require.NoError(t, err)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"x_axis": {"labels": ["Week 1", "Week 2"], "type": "standard"},
		"series": [
			{"name": "This month", "data": [40, 20]},
			{"name": "Last month", "data": [44, 22]}
		]
	}`, string(data))
}
