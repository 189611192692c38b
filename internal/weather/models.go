package weather

import (
	"encoding/json"
	"math"
	"strings"
)

// DefaultDescription is reported by a Day that holds no records.
const DefaultDescription = "Clear"

// Record is a single point-in-time observation as reported by the provider.
// Temperature is in the configured provider unit (°F for "imperial").
type Record struct {
	Temperature int     `json:"temperature"`
	Humidity    int     `json:"humidityPercent"`
	Description string  `json:"description"`
	WindSpeed   float64 `json:"windSpeed"`

	// Timestamp is the provider's "YYYY-MM-DD HH:MM:SS" slot time. It is
	// empty for instant observations from the current-weather endpoint.
	Timestamp string `json:"timestamp,omitempty"`
}

// Date returns the calendar date portion of the timestamp, i.e. everything
// before the first space.
func (r Record) Date() string {
	date, _, _ := strings.Cut(r.Timestamp, " ")
	return date
}

// Day groups the records that share one calendar date and carries the
// statistics derived from them.
type Day struct {
	Date    string
	Records []Record

	TempHigh float64 // -Inf until a record is added
	TempLow  float64 // +Inf until a record is added

	AverageHumidity       float64
	AverageWindSpeed      float64
	MostCommonDescription string

	totalHumidity  int
	totalWindSpeed float64
}

// NewDay returns an empty day for the given date key.
func NewDay(date string) Day {
	return Day{
		Date:                  date,
		TempHigh:              math.Inf(-1),
		TempLow:               math.Inf(1),
		MostCommonDescription: DefaultDescription,
	}
}

type dayJSON struct {
	Date                  string   `json:"date"`
	TempHigh              *float64 `json:"tempHigh"`
	TempLow               *float64 `json:"tempLow"`
	AverageHumidity       float64  `json:"averageHumidity"`
	AverageWindSpeed      float64  `json:"averageWindSpeed"`
	MostCommonDescription string   `json:"mostCommonDescription"`
	Records               []Record `json:"records"`
}

// MarshalJSON encodes the unset infinite bounds of an empty day as null,
// since JSON has no representation for infinity.
func (d Day) MarshalJSON() ([]byte, error) {
	out := dayJSON{
		Date:                  d.Date,
		AverageHumidity:       d.AverageHumidity,
		AverageWindSpeed:      d.AverageWindSpeed,
		MostCommonDescription: d.MostCommonDescription,
		Records:               d.Records,
	}
	if len(d.Records) > 0 {
		high, low := d.TempHigh, d.TempLow
		out.TempHigh, out.TempLow = &high, &low
	}
	if out.Records == nil {
		out.Records = []Record{}
	}
	return json.Marshal(out)
}

// ForecastResult is everything one GetWeather call produces.
type ForecastResult struct {
	// Query is the normalized provider query, e.g. "Moscow,ID,US".
	Query string `json:"query"`
	// DisplayName is the caller's original text, kept for presentation.
	DisplayName string `json:"displayName,omitempty"`

	Current Record `json:"current"`
	// CurrentApproximate is set when Current is the first forecast slot
	// rather than a reading from the current-weather endpoint. The slot can
	// be up to three hours away from now.
	CurrentApproximate bool `json:"currentApproximate"`

	Days []Day `json:"days"`
}
