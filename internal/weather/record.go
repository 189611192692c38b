package weather

import (
	"fmt"
	"time"
)

// TimestampLayout is the provider's dt_txt format.
const TimestampLayout = "2006-01-02 15:04:05"

// Fragment is one observation as encoded by the provider, shared by the
// current-weather body and each entry of the forecast list. Pointer fields
// distinguish an absent value from a zero one.
type Fragment struct {
	Main    *FragmentMain       `json:"main"`
	Weather []FragmentCondition `json:"weather"`
	Wind    *FragmentWind       `json:"wind"`
	DtTxt   *string             `json:"dt_txt"`
}

type FragmentMain struct {
	Temp     *float64 `json:"temp"`
	Humidity *float64 `json:"humidity"`
}

type FragmentCondition struct {
	Description *string `json:"description"`
}

type FragmentWind struct {
	Speed *float64 `json:"speed"`
}

// RecordFromFragment builds a Record from a provider fragment, truncating
// the temperature toward zero. dt_txt is optional here; ForecastRecords
// requires it.
func RecordFromFragment(f Fragment) (Record, error) {
	if f.Main == nil {
		return Record{}, malformed("missing main")
	}
	if f.Main.Temp == nil {
		return Record{}, malformed("missing main.temp")
	}
	if f.Main.Humidity == nil {
		return Record{}, malformed("missing main.humidity")
	}
	humidity := *f.Main.Humidity
	if humidity < 0 || humidity > 100 {
		return Record{}, malformed("main.humidity %v out of range", humidity)
	}
	if len(f.Weather) == 0 {
		return Record{}, malformed("missing weather conditions")
	}
	if f.Weather[0].Description == nil {
		return Record{}, malformed("missing weather[0].description")
	}
	if f.Wind == nil || f.Wind.Speed == nil {
		return Record{}, malformed("missing wind.speed")
	}
	if *f.Wind.Speed < 0 {
		return Record{}, malformed("negative wind.speed %v", *f.Wind.Speed)
	}

	r := Record{
		Temperature: int(*f.Main.Temp),
		Humidity:    int(humidity),
		Description: *f.Weather[0].Description,
		WindSpeed:   *f.Wind.Speed,
	}
	if f.DtTxt != nil {
		r.Timestamp = *f.DtTxt
	}
	return r, nil
}

// ForecastRecords converts the provider's forecast list in order. Every
// entry must carry a well-formed dt_txt since it decides the day bucket.
func ForecastRecords(list []Fragment) ([]Record, error) {
	records := make([]Record, 0, len(list))
	for i, f := range list {
		if f.DtTxt == nil {
			return nil, malformed("list[%d]: missing dt_txt", i)
		}
		if _, err := time.Parse(TimestampLayout, *f.DtTxt); err != nil {
			return nil, malformed("list[%d]: dt_txt %q is not %q", i, *f.DtTxt, TimestampLayout)
		}
		r, err := RecordFromFragment(f)
		if err != nil {
			return nil, fmt.Errorf("list[%d]: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}
