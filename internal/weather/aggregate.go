package weather

import (
	"math"
	"sort"
)

// Add appends a record and updates the running statistics in O(1).
func (d *Day) Add(r Record) {
	d.Records = append(d.Records, r)

	temp := float64(r.Temperature)
	d.TempHigh = math.Max(d.TempHigh, temp)
	d.TempLow = math.Min(d.TempLow, temp)
	d.totalHumidity += r.Humidity
	d.totalWindSpeed += r.WindSpeed
}

// Finalize computes the averages and the most common description. It is
// called once after every record has been added. A day without records
// keeps zero averages and DefaultDescription.
func (d *Day) Finalize() {
	n := len(d.Records)
	if n == 0 {
		d.AverageHumidity = 0
		d.AverageWindSpeed = 0
		d.MostCommonDescription = DefaultDescription
		return
	}

	d.AverageHumidity = float64(d.totalHumidity) / float64(n)
	d.AverageWindSpeed = d.totalWindSpeed / float64(n)
	d.MostCommonDescription = mostCommonDescription(d.Records)
}

// mostCommonDescription picks the description with the highest count.
// Ties go to whichever of the tied descriptions appeared first.
func mostCommonDescription(records []Record) string {
	counts := make(map[string]int, len(records))
	order := make([]string, 0, len(records))
	for _, r := range records {
		if _, seen := counts[r.Description]; !seen {
			order = append(order, r.Description)
		}
		counts[r.Description]++
	}

	best := DefaultDescription
	bestCount := 0
	for _, desc := range order {
		if counts[desc] > bestCount {
			best = desc
			bestCount = counts[desc]
		}
	}
	return best
}

// Aggregate buckets records by calendar date and finalizes each bucket.
// Days are returned in the order their date was first seen in records,
// which matches chronological order for a time-ordered provider stream.
func Aggregate(records []Record) []Day {
	index := make(map[string]int)
	var days []Day

	for _, r := range records {
		date := r.Date()
		i, ok := index[date]
		if !ok {
			i = len(days)
			index[date] = i
			days = append(days, NewDay(date))
		}
		days[i].Add(r)
	}

	for i := range days {
		days[i].Finalize()
	}

	return days
}

// SortDays orders days by date key. Aggregate does not sort; this is applied
// when the input stream cannot be trusted to be time ordered.
func SortDays(days []Day) {
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})
}
