package geocode

// Suggestion is a candidate place returned by a city search.
type Suggestion struct {
	Name    string `json:"name"`
	Region  string `json:"region,omitempty"`
	Country string `json:"country"`
}

// DisplayName formats the suggestion the way Resolve expects to receive it:
// "Name, Region, Country", or "Name, Country" when the region is unknown.
func (s Suggestion) DisplayName() string {
	if s.Region == "" {
		return s.Name + ", " + s.Country
	}
	return s.Name + ", " + s.Region + ", " + s.Country
}
