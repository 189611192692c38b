package geocode

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// RegionCountry is the only country whose subdivisions are consulted when
// resolving the region segment of a "City, Region, Country" input.
const RegionCountry = "US"

//go:embed data/countries.yaml
var countriesYAML []byte

//go:embed data/subdivisions.yaml
var subdivisionsYAML []byte

type countryEntry struct {
	Code    string   `yaml:"code"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

type subdivisionEntry struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// reference holds the lookup tables keyed by case-folded name.
type reference struct {
	countries    map[string]string
	subdivisions map[string]map[string]string
}

var loadReference = sync.OnceValue(func() *reference {
	ref, err := parseReference(countriesYAML, subdivisionsYAML)
	if err != nil {
		panic(fmt.Sprintf("geocode: embedded reference data: %v", err))
	}
	return ref
})

func parseReference(countriesData, subdivisionsData []byte) (*reference, error) {
	var countries struct {
		Countries []countryEntry `yaml:"countries"`
	}
	if err := yaml.Unmarshal(countriesData, &countries); err != nil {
		return nil, fmt.Errorf("parse countries: %w", err)
	}

	var subdivisions struct {
		Subdivisions map[string][]subdivisionEntry `yaml:"subdivisions"`
	}
	if err := yaml.Unmarshal(subdivisionsData, &subdivisions); err != nil {
		return nil, fmt.Errorf("parse subdivisions: %w", err)
	}

	ref := &reference{
		countries:    make(map[string]string, len(countries.Countries)*2),
		subdivisions: make(map[string]map[string]string, len(subdivisions.Subdivisions)),
	}

	for _, c := range countries.Countries {
		if len(c.Code) != 2 || c.Name == "" {
			return nil, fmt.Errorf("invalid country entry %q (%q)", c.Name, c.Code)
		}
		for _, name := range append([]string{c.Name}, c.Aliases...) {
			key := foldKey(name)
			if existing, ok := ref.countries[key]; ok && existing != c.Code {
				return nil, fmt.Errorf("country name %q maps to both %s and %s", name, existing, c.Code)
			}
			ref.countries[key] = c.Code
		}
	}

	for country, entries := range subdivisions.Subdivisions {
		table := make(map[string]string, len(entries))
		for _, s := range entries {
			if s.Code == "" || s.Name == "" {
				return nil, fmt.Errorf("invalid subdivision entry %q for %s", s.Name, country)
			}
			table[foldKey(s.Name)] = s.Code
		}
		ref.subdivisions[country] = table
	}

	return ref, nil
}

// foldKey returns the case-insensitive lookup key for a name.
func foldKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// CountryCode resolves a country name or alias to its ISO 3166-1 alpha-2 code.
func CountryCode(name string) (string, bool) {
	code, ok := loadReference().countries[foldKey(name)]
	return code, ok
}

// SubdivisionCode resolves a subdivision name within country to its code,
// without the country prefix ("Idaho" in "US" resolves to "ID").
func SubdivisionCode(name, country string) (string, bool) {
	table, ok := loadReference().subdivisions[country]
	if !ok {
		return "", false
	}
	code, ok := table[foldKey(name)]
	return code, ok
}
