package location

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"resty.dev/v3"
)

const NominatimURL = "https://nominatim.openstreetmap.org"

var ErrNoPlace = errors.New("location: no place matches the query")

// Place is the best match for a free-text place name.
type Place struct {
	Name        string
	Latitude    float64
	Longitude   float64
	City        string
	Country     string
	CountryCode string
}

// Signal returns the place as a coordinate signal. The country is not used,
// so the lookup goes through the same path as a detected position.
func (p Place) Signal() Signal {
	return Point(p.Latitude, p.Longitude)
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// Geocoder resolves place names with a Nominatim server.
type Geocoder struct {
	http *resty.Client
}

// NewGeocoder returns a geocoder for the Nominatim instance at baseURL.
// Nominatim's usage policy requires an identifying User-Agent.
func NewGeocoder(baseURL, userAgent string) *Geocoder {
	return &Geocoder{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("User-Agent", userAgent).
			SetTimeout(10 * time.Second),
	}
}

func (g *Geocoder) Close() error {
	return g.http.Close()
}

// Search returns the first match for query.
func (g *Geocoder) Search(ctx context.Context, query, language string) (*Place, error) {
	if language == "" {
		language = "en"
	}
	var results []nominatimResult
	resp, err := g.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":               query,
			"format":          "json",
			"addressdetails":  "1",
			"limit":           "1",
			"accept-language": language,
		}).
		SetResult(&results).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("geocode %q: unexpected status %s", query, resp.Status())
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoPlace, query)
	}

	first := results[0]
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: bad latitude %q", query, first.Lat)
	}
	lon, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: bad longitude %q", query, first.Lon)
	}

	city := first.Address.City
	if city == "" {
		city = first.Address.Town
	}
	if city == "" {
		city = first.Address.Village
	}
	name := first.Name
	if name == "" {
		name = first.DisplayName
	}
	return &Place{
		Name:        name,
		Latitude:    lat,
		Longitude:   lon,
		City:        city,
		Country:     first.Address.Country,
		CountryCode: first.Address.CountryCode,
	}, nil
}
