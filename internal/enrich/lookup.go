package enrich

import (
	"context"
	"time"

	"relocation/internal/models"
	"relocation/pkg/geo"
	"relocation/pkg/location"
)

// NormalizeRegion lowercases the region code. Events keyed by a region but
// carrying no code take it from the key.
func NormalizeRegion(_ context.Context, e *models.LookupEvent) error {
	e.RegionCode = geo.NormalizeCode(e.RegionCode)
	if e.RegionCode != "" {
		return nil
	}
	sig, err := location.Parse(e.LocationKey)
	if err != nil {
		return nil
	}
	if sig.HasRegion() {
		e.RegionCode = geo.NormalizeCode(sig.RegionCode)
	}
	return nil
}

// LabelRegion fills in the display label when the publisher left it out.
func LabelRegion(_ context.Context, e *models.LookupEvent) error {
	if e.RegionLabel == "" {
		e.RegionLabel = geo.Label(e.RegionCode)
	}
	return nil
}

// StampTime gives events without a timestamp the time they were archived.
func StampTime(now func() time.Time) Step[models.LookupEvent] {
	return func(_ context.Context, e *models.LookupEvent) error {
		if e.Timestamp.IsZero() {
			e.Timestamp = now().UTC()
		}
		return nil
	}
}

// LookupPipeline prepares lookup events for archiving.
func LookupPipeline(now func() time.Time) *Pipeline[models.LookupEvent] {
	return NewPipeline(
		NewStage[models.LookupEvent](NormalizeRegion, StampTime(now)),
		NewStage[models.LookupEvent](LabelRegion),
	)
}
