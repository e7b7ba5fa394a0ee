package keys

import (
	"fmt"
	"strings"

	"relocation/internal/models"
)

// Durable store entry names.
const (
	Cache   = "job_cache"
	History = "job_history"
)

// sanitizeKey lowercases s and replaces spaces with hyphens and commas with
// underscores.
func sanitizeKey(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "-", ",", "_").Replace(s))
}

// Event returns the canonical archive object key for a lookup event.
func Event(e models.LookupEvent) string {
	region := e.RegionCode
	if region == "" {
		region = "unknown"
	}
	return fmt.Sprintf("lookups/%s/%s/%s.json",
		sanitizeKey(region),
		e.Timestamp.UTC().Format("2006-01-02"),
		sanitizeKey(e.ID),
	)
}
