// Package geo knows the regions the directory ships data for and how they
// are displayed.
package geo

import (
	"sort"
	"strings"
)

// DefaultLabel is shown when a region code has no known display name.
const DefaultLabel = "Selected country"

var regions = map[string]string{
	"sk": "Slovakia",
	"cz": "Czech Republic",
	"pl": "Poland",
	"hu": "Hungary",
	"at": "Austria",
	"de": "Germany",
	"fr": "France",
	"uk": "United Kingdom",
	"us": "United States",
	"ca": "Canada",
}

// NormalizeCode lowercases and trims a region code.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Name returns the display name for a region code.
func Name(code string) (string, bool) {
	name, ok := regions[NormalizeCode(code)]
	return name, ok
}

// Label returns the display name for a region code, or DefaultLabel.
func Label(code string) string {
	if name, ok := Name(code); ok {
		return name
	}
	return DefaultLabel
}

// IsRegion reports whether code is one of the known regions.
func IsRegion(code string) bool {
	_, ok := Name(code)
	return ok
}

// Lookup resolves user input that is either a region code or a region name
// (case-insensitive) to a region code.
func Lookup(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if code := NormalizeCode(input); IsRegion(code) {
		return code, true
	}
	for code, name := range regions {
		if strings.EqualFold(name, input) {
			return code, true
		}
	}
	return "", false
}

// Codes returns all known region codes in lexical order.
func Codes() []string {
	codes := make([]string, 0, len(regions))
	for code := range regions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
