package jobsapi

import (
	"strings"

	"relocation/internal/models"
	"relocation/pkg/location"
)

// Path is the backend endpoint that recommends job sites for a location.
const Path = "/api/get_job_sites"

// Request is the JSON body sent to the backend. Exactly one of RegionCode or
// the coordinate pair is set.
type Request struct {
	RegionCode string   `json:"region_code,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Language   string   `json:"language,omitempty"`
}

// NewRequest builds the request body for a signal.
func NewRequest(sig location.Signal, language string) Request {
	req := Request{Language: language}
	if sig.HasRegion() {
		req.RegionCode = strings.TrimSpace(sig.RegionCode)
		return req
	}
	if c := sig.Coordinates; c != nil {
		lat, lng := c.Latitude, c.Longitude
		req.Latitude = &lat
		req.Longitude = &lng
	}
	return req
}

// Response is a validated backend answer. Sites is never empty.
type Response struct {
	Sites      []models.Site
	RegionCode string
	RegionName string
	City       string
}

// wireResponse mirrors the JSON the backend sends. Sites stays raw so that a
// missing or non-list value can be told apart from a decoding error.
type wireResponse struct {
	Sites       rawJSON `json:"sites"`
	RegionCode  string  `json:"region_code"`
	CountryCode string  `json:"country_code"`
	CountryName string  `json:"country_name"`
	City        string  `json:"city"`
}
