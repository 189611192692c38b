// Package geocode turns free-form "City, Region, Country" text into the
// "City,RR,CC" query format OpenWeatherMap recognises.
//
// The provider's free-text search drops trailing segments it cannot parse
// and then picks the most populous match, so "Moscow, Idaho, United States"
// sent verbatim resolves to Moscow, Russia. Segments are therefore reduced
// to ISO codes before the query leaves the process.
package geocode

import (
	"fmt"
	"strings"
)

// Segment kinds reported by UnresolvedLocation.
const (
	KindRegion  = "region"
	KindCountry = "country"
)

// UnresolvedLocation reports a region or country name that has no code in
// the reference data. It is a diagnostic, not a failure: the query is still
// built with an empty segment in its place.
type UnresolvedLocation struct {
	Kind string
	Name string
}

func (u UnresolvedLocation) Error() string {
	return fmt.Sprintf("unresolved %s %q", u.Kind, u.Name)
}

// Query is the result of resolving free-form location text.
type Query struct {
	City    string
	Region  string
	Country string

	// Unresolved lists the segments that could not be mapped to a code.
	Unresolved []UnresolvedLocation

	text string
}

// String returns the provider query, e.g. "Moscow,ID,US".
func (q Query) String() string {
	return q.text
}

// Normalize converts raw location text into a provider query string.
func Normalize(raw string) string {
	return Resolve(raw).String()
}

// Resolve converts raw location text into a provider query.
//
//   - "City" is returned trimmed.
//   - "City, Country" becomes "City,CC".
//   - "City, Region, Country" becomes "City,RR,CC", with the region looked
//     up among RegionCountry's subdivisions.
//   - Anything with more segments degrades to the bare city.
//
// Unresolved names leave their code segment empty.
func Resolve(raw string) Query {
	if !strings.Contains(raw, ",") {
		city := strings.TrimSpace(raw)
		return Query{City: city, text: city}
	}

	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	q := Query{City: parts[0]}

	switch len(parts) {
	case 2:
		q.Country = q.resolveCountry(parts[1])
		q.text = q.City + "," + q.Country
	case 3:
		q.Region = q.resolveRegion(parts[1])
		q.Country = q.resolveCountry(parts[2])
		q.text = q.City + "," + q.Region + "," + q.Country
	default:
		q.text = q.City
	}

	return q
}

func (q *Query) resolveCountry(name string) string {
	code, ok := CountryCode(name)
	if !ok {
		q.Unresolved = append(q.Unresolved, UnresolvedLocation{Kind: KindCountry, Name: name})
	}
	return code
}

func (q *Query) resolveRegion(name string) string {
	code, ok := SubdivisionCode(name, RegionCountry)
	if !ok {
		q.Unresolved = append(q.Unresolved, UnresolvedLocation{Kind: KindRegion, Name: name})
	}
	return code
}
