package report

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-forecast/internal/weather"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestUnitsFor(t *testing.T) {
	assert.Equal(t, Units{Temperature: "°F", Speed: "mph"}, UnitsFor("imperial"))
	assert.Equal(t, Units{Temperature: "°C", Speed: "m/s"}, UnitsFor("Metric"))
	assert.Equal(t, Units{Temperature: "K", Speed: "m/s"}, UnitsFor("standard"))
	assert.Equal(t, UnitsFor("imperial"), UnitsFor(""))
}

func TestWriteCurrent(t *testing.T) {
	var buf bytes.Buffer
	rec := weather.Record{Temperature: 71, Humidity: 40, Description: "few clouds", WindSpeed: 3.2}

	require.NoError(t, WriteCurrent(&buf, "Paris,FR", rec, UnitsFor("imperial")))
	assert.Equal(t, "Weather in Paris,FR:\n"+
		"Description: few clouds\n"+
		"Temperature: 71°F\n"+
		"Humidity: 40%\n"+
		"Wind Speed: 3.2 mph\n", buf.String())
}

func TestWriteForecast(t *testing.T) {
	records := []weather.Record{
		{Temperature: 70, Humidity: 50, Description: "clear sky", WindSpeed: 4, Timestamp: "2024-05-01 12:00:00"},
		{Temperature: 60, Humidity: 70, Description: "light rain", WindSpeed: 6, Timestamp: "2024-05-01 15:00:00"},
		{Temperature: 55, Humidity: 80, Description: "light rain", WindSpeed: 2, Timestamp: "2024-05-02 00:00:00"},
	}
	days := weather.Aggregate(records)
	days = append(days, weather.NewDay("2024-05-03"))

	result := &weather.ForecastResult{
		Query:              "Moscow,ID,US",
		DisplayName:        "Moscow, Idaho, United States",
		Current:            records[0],
		CurrentApproximate: true,
		Days:               days,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteForecast(&buf, result, UnitsFor("imperial")))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Weather in Moscow, Idaho, United States (Moscow,ID,US):\n"))
	assert.Contains(t, out, "first forecast slot")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	table := lines[len(lines)-4:]

	assert.Equal(t, []string{"DATE", "HIGH", "LOW", "HUMIDITY", "WIND", "CONDITIONS"}, strings.Fields(table[0]))
	assert.Equal(t, []string{"2024-05-01", "70°F", "60°F", "60%", "5.0", "mph", "clear", "sky"}, strings.Fields(table[1]))
	assert.Equal(t, []string{"2024-05-02", "55°F", "55°F", "80%", "2.0", "mph", "light", "rain"}, strings.Fields(table[2]))
	assert.Equal(t, []string{"2024-05-03", "-", "-", "0%", "0.0", "mph", "Clear"}, strings.Fields(table[3]))
}

func TestWriteForecastWithoutDisplayName(t *testing.T) {
	result := &weather.ForecastResult{
		Query:   "Paris",
		Current: weather.Record{Temperature: 12, Humidity: 60, Description: "mist", WindSpeed: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteForecast(&buf, result, UnitsFor("metric")))
	assert.True(t, strings.HasPrefix(buf.String(), "Weather in Paris:\n"))
	assert.NotContains(t, buf.String(), "first forecast slot")
	assert.Contains(t, buf.String(), "Temperature: 12°C")
}
