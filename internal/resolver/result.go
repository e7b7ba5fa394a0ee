package resolver

import "relocation/internal/models"

// Status tells the caller which UI state to render.
type Status int

const (
	// StatusShowing means Sites is non-empty.
	StatusShowing Status = iota
	// StatusEmpty means the region is known but has no entries.
	StatusEmpty
	// StatusManualSelectionRequired means only coordinates were given, the
	// backend failed and no static table applies.
	StatusManualSelectionRequired
)

func (s Status) String() string {
	switch s {
	case StatusShowing:
		return "showing"
	case StatusEmpty:
		return "empty"
	case StatusManualSelectionRequired:
		return "manual_selection_required"
	default:
		return "unknown"
	}
}

// Source names the tier that produced a result.
type Source int

const (
	SourceNone Source = iota
	SourceCache
	SourceNetwork
	SourceFallback
)

func (s Source) String() string {
	switch s {
	case SourceCache:
		return "cache"
	case SourceNetwork:
		return "network"
	case SourceFallback:
		return "fallback"
	default:
		return "none"
	}
}

// Result is what the display layer renders.
type Result struct {
	Status      Status
	Source      Source
	Key         string
	Sites       []models.Site
	RegionCode  string
	RegionLabel string
}

// ManualSelectionRequired reports whether the user has to pick a region.
func (r Result) ManualSelectionRequired() bool {
	return r.Status == StatusManualSelectionRequired
}

// Empty reports whether the region is known but nothing can be shown.
func (r Result) Empty() bool {
	return r.Status == StatusEmpty
}
