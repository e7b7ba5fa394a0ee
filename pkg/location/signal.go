// Package location describes where a lookup is made from and how that
// location is turned into a cache key.
package location

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"relocation/pkg/geo"
)

var (
	ErrNoLocation       = errors.New("location: neither region code nor coordinates supplied")
	ErrAmbiguous        = errors.New("location: both region code and coordinates supplied")
	ErrCoordinateBounds = errors.New("location: coordinates out of range")
)

// Coordinates is a WGS 84 point in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Signal is the input of a lookup. A manual selection carries a region code,
// a locator carries coordinates. Use Region or Point to build one.
type Signal struct {
	RegionCode  string
	Coordinates *Coordinates
}

// Region returns a signal for a hand-picked region code.
func Region(code string) Signal {
	return Signal{RegionCode: code}
}

// Point returns a signal for a detected position.
func Point(lat, lng float64) Signal {
	return Signal{Coordinates: &Coordinates{Latitude: lat, Longitude: lng}}
}

// HasRegion reports whether the signal names a region, which is what makes
// the static fallback table applicable.
func (s Signal) HasRegion() bool {
	return geo.NormalizeCode(s.RegionCode) != ""
}

// Validate checks that exactly one form of location is present.
func (s Signal) Validate() error {
	switch {
	case s.HasRegion() && s.Coordinates != nil:
		return ErrAmbiguous
	case !s.HasRegion() && s.Coordinates == nil:
		return ErrNoLocation
	case s.Coordinates != nil:
		c := s.Coordinates
		if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
			return fmt.Errorf("%w: %s", ErrCoordinateBounds, s.Key())
		}
	}
	return nil
}

// Key returns the cache key for the signal. Region codes are normalized the
// same way the fallback table and labels look them up.
// Coordinates are written at full precision as "<lat>,<lng>", so two nearby
// positions never share an entry.
func (s Signal) Key() string {
	if s.HasRegion() {
		return geo.NormalizeCode(s.RegionCode)
	}
	if s.Coordinates == nil {
		return ""
	}
	return FormatCoordinate(s.Coordinates.Latitude) + "," + FormatCoordinate(s.Coordinates.Longitude)
}

// String implements fmt.Stringer.
func (s Signal) String() string {
	if k := s.Key(); k != "" {
		return k
	}
	return "<none>"
}

// FormatCoordinate renders a degree value with the shortest representation
// that round-trips, without rounding.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Parse reads a signal from user input. "<lat>,<lng>" becomes a point,
// anything else is taken as a region code.
func Parse(input string) (Signal, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Signal{}, ErrNoLocation
	}
	latStr, lngStr, found := strings.Cut(input, ",")
	if !found {
		return Region(input), nil
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Signal{}, fmt.Errorf("parse latitude %q: %w", latStr, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return Signal{}, fmt.Errorf("parse longitude %q: %w", lngStr, err)
	}
	sig := Point(lat, lng)
	if err := sig.Validate(); err != nil {
		return Signal{}, err
	}
	return sig, nil
}
