// Package report renders forecast results as plain text for terminals.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/i474232898/weather-forecast/internal/weather"
)

// Units labels the values of one provider unit system.
type Units struct {
	Temperature string
	Speed       string
}

// UnitsFor returns the labels for an OpenWeatherMap unit system name.
// Unknown names fall back to imperial.
func UnitsFor(system string) Units {
	switch strings.ToLower(system) {
	case "metric":
		return Units{Temperature: "°C", Speed: "m/s"}
	case "standard":
		return Units{Temperature: "K", Speed: "m/s"}
	default:
		return Units{Temperature: "°F", Speed: "mph"}
	}
}

var heading = color.New(color.Bold).SprintFunc()

// WriteCurrent writes a single observation headed by name.
func WriteCurrent(w io.Writer, name string, rec weather.Record, u Units) error {
	_, err := fmt.Fprintf(w,
		"%s\nDescription: %s\nTemperature: %d%s\nHumidity: %d%%\nWind Speed: %s %s\n",
		heading("Weather in "+name+":"),
		rec.Description,
		rec.Temperature, u.Temperature,
		rec.Humidity,
		strconv.FormatFloat(rec.WindSpeed, 'f', -1, 64), u.Speed,
	)
	return err
}

// WriteForecast writes the current conditions followed by one table row per
// day in result order.
func WriteForecast(w io.Writer, result *weather.ForecastResult, u Units) error {
	name := result.DisplayName
	if name == "" {
		name = result.Query
	}
	if name != result.Query {
		name = fmt.Sprintf("%s (%s)", name, result.Query)
	}

	if err := WriteCurrent(w, name, result.Current, u); err != nil {
		return err
	}
	if result.CurrentApproximate {
		if _, err := fmt.Fprintln(w, "(current conditions taken from the first forecast slot)"); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\n%s\n", heading("Forecast:")); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tHIGH\tLOW\tHUMIDITY\tWIND\tCONDITIONS")
	for _, day := range result.Days {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%.1f %s\t%s\n",
			day.Date,
			bound(day.TempHigh, u),
			bound(day.TempLow, u),
			day.AverageHumidity,
			day.AverageWindSpeed, u.Speed,
			day.MostCommonDescription,
		)
	}
	return tw.Flush()
}

// bound formats a temperature bound, which is infinite for an empty day.
func bound(v float64, u Units) string {
	if math.IsInf(v, 0) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + u.Temperature
}
