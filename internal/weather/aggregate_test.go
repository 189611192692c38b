package weather

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(ts string, temp, humidity int, wind float64, desc string) Record {
	return Record{Temperature: temp, Humidity: humidity, WindSpeed: wind, Description: desc, Timestamp: ts}
}

func TestAggregate_TwoDayScenario(t *testing.T) {
	records := []Record{
		rec("2024-03-01 09:00:00", 50, 80, 5, "clear sky"),
		rec("2024-03-01 12:00:00", 55, 80, 5, "clear sky"),
		rec("2024-03-01 15:00:00", 60, 80, 5, "few clouds"),
		rec("2024-03-02 09:00:00", 40, 80, 5, "light rain"),
		rec("2024-03-02 12:00:00", 45, 80, 5, "light rain"),
		rec("2024-03-02 15:00:00", 42, 80, 5, "overcast clouds"),
	}

	days := Aggregate(records)

	require.Len(t, days, 2)

	first := days[0]
	assert.Equal(t, "2024-03-01", first.Date)
	assert.Len(t, first.Records, 3)
	assert.InDelta(t, 60, first.TempHigh, 0)
	assert.InDelta(t, 50, first.TempLow, 0)
	assert.InDelta(t, 80.0, first.AverageHumidity, 1e-9)
	assert.InDelta(t, 5.0, first.AverageWindSpeed, 1e-9)
	assert.Equal(t, "clear sky", first.MostCommonDescription)

	second := days[1]
	assert.Equal(t, "2024-03-02", second.Date)
	assert.InDelta(t, 45, second.TempHigh, 0)
	assert.InDelta(t, 40, second.TempLow, 0)
	assert.InDelta(t, 80.0, second.AverageHumidity, 1e-9)
	assert.InDelta(t, 5.0, second.AverageWindSpeed, 1e-9)
	assert.Equal(t, "light rain", second.MostCommonDescription)
}

func TestAggregate_BoundsHoldForEveryRecord(t *testing.T) {
	records := []Record{
		rec("2024-01-01 00:00:00", -3, 90, 1.5, "snow"),
		rec("2024-01-01 03:00:00", 12, 70, 0, "snow"),
		rec("2024-01-02 00:00:00", 7, 65, 2.25, "mist"),
		rec("2024-01-01 06:00:00", -10, 95, 3, "snow"),
		rec("2024-01-02 03:00:00", 7, 60, 4, "mist"),
	}

	for _, day := range Aggregate(records) {
		require.NotEmpty(t, day.Records)
		for _, r := range day.Records {
			assert.LessOrEqual(t, day.TempLow, float64(r.Temperature))
			assert.GreaterOrEqual(t, day.TempHigh, float64(r.Temperature))
		}
	}
}

func TestAggregate_AverageHumidityIsMean(t *testing.T) {
	records := []Record{
		rec("2024-06-10 00:00:00", 70, 41, 3.1, "clear sky"),
		rec("2024-06-10 03:00:00", 68, 52, 2.4, "clear sky"),
		rec("2024-06-10 06:00:00", 66, 77, 1.2, "clear sky"),
	}

	days := Aggregate(records)

	require.Len(t, days, 1)
	assert.InDelta(t, float64(41+52+77)/3, days[0].AverageHumidity, 1e-9)
	assert.InDelta(t, (3.1+2.4+1.2)/3, days[0].AverageWindSpeed, 1e-9)
}

func TestAggregate_FirstSeenDateOrder(t *testing.T) {
	records := []Record{
		rec("2024-05-03 00:00:00", 1, 1, 1, "a"),
		rec("2024-05-01 00:00:00", 1, 1, 1, "a"),
		rec("2024-05-03 03:00:00", 1, 1, 1, "a"),
		rec("2024-05-02 00:00:00", 1, 1, 1, "a"),
	}

	days := Aggregate(records)

	require.Len(t, days, 3)
	assert.Equal(t, []string{"2024-05-03", "2024-05-01", "2024-05-02"}, dates(days))
	assert.Len(t, days[0].Records, 2)

	SortDays(days)
	assert.Equal(t, []string{"2024-05-01", "2024-05-02", "2024-05-03"}, dates(days))
}

func TestAggregate_RecordsKeepArrivalOrder(t *testing.T) {
	records := []Record{
		rec("2024-05-01 12:00:00", 3, 1, 1, "a"),
		rec("2024-05-01 06:00:00", 2, 1, 1, "a"),
		rec("2024-05-01 09:00:00", 1, 1, 1, "a"),
	}

	days := Aggregate(records)

	require.Len(t, days, 1)
	assert.Equal(t, records, days[0].Records)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}

func TestMostCommonDescription_TieBreak(t *testing.T) {
	tests := []struct {
		name         string
		descriptions []string
		want         string
	}{
		{"majority wins", []string{"rain", "rain", "clear"}, "rain"},
		{"all unique picks first", []string{"clear", "rain"}, "clear"},
		{"later majority beats first seen", []string{"clear", "rain", "rain"}, "rain"},
		{"tie picks first seen of tied", []string{"mist", "rain", "clear", "clear", "rain"}, "rain"},
		{"not alphabetical", []string{"snow", "clear"}, "snow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day := NewDay("2024-01-01")
			for i, d := range tt.descriptions {
				day.Add(rec("2024-01-01 00:00:00", i, 50, 1, d))
			}
			day.Finalize()
			assert.Equal(t, tt.want, day.MostCommonDescription)
		})
	}
}

func TestDay_EmptyFinalize(t *testing.T) {
	day := NewDay("2024-01-01")
	day.Finalize()

	assert.True(t, math.IsInf(day.TempHigh, -1))
	assert.True(t, math.IsInf(day.TempLow, 1))
	assert.Zero(t, day.AverageHumidity)
	assert.Zero(t, day.AverageWindSpeed)
	assert.False(t, math.IsNaN(day.AverageHumidity))
	assert.Equal(t, DefaultDescription, day.MostCommonDescription)
}

func TestDay_MarshalJSON(t *testing.T) {
	empty := NewDay("2024-01-01")
	empty.Finalize()

	raw, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"date": "2024-01-01",
		"tempHigh": null,
		"tempLow": null,
		"averageHumidity": 0,
		"averageWindSpeed": 0,
		"mostCommonDescription": "Clear",
		"records": []
	}`, string(raw))

	days := Aggregate([]Record{rec("2024-01-02 00:00:00", 30, 60, 2, "fog")})
	raw, err = json.Marshal(days[0])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.InDelta(t, 30, decoded["tempHigh"], 0)
	assert.InDelta(t, 30, decoded["tempLow"], 0)
	assert.Equal(t, "fog", decoded["mostCommonDescription"])
}

func TestRecord_Date(t *testing.T) {
	assert.Equal(t, "2024-03-01", Record{Timestamp: "2024-03-01 09:00:00"}.Date())
	assert.Equal(t, "2024-03-01", Record{Timestamp: "2024-03-01"}.Date())
	assert.Empty(t, Record{}.Date())
}

func dates(days []Day) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Date
	}
	return out
}
