package models

import (
	"time"

	"github.com/google/uuid"
)

// ISOTimestamp is the layout history timestamps are written in.
const ISOTimestamp = "2006-01-02T15:04:05.000Z07:00"

// Site is one directory entry, e.g. a job portal.
type Site struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// SameSites compares two site lists by order and content.
func SameSites(a, b []Site) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SiteNames returns the names of sites in order.
func SiteNames(sites []Site) []string {
	names := make([]string, 0, len(sites))
	for _, s := range sites {
		names = append(names, s.Name)
	}
	return names
}

// CacheRecord is what the durable cache keeps per location key.
type CacheRecord struct {
	Key        string `json:"key"`
	Sites      []Site `json:"sites"`
	RegionCode string `json:"region_code"`
}

// HistoryEntry records one successful lookup.
type HistoryEntry struct {
	Timestamp   string   `json:"timestamp"`
	LocationKey string   `json:"location_key"`
	SiteNames   []string `json:"site_names"`
}

// NewHistoryEntry builds a history entry stamped with now in UTC.
func NewHistoryEntry(now time.Time, key string, sites []Site) HistoryEntry {
	return HistoryEntry{
		Timestamp:   now.UTC().Format(ISOTimestamp),
		LocationKey: key,
		SiteNames:   SiteNames(sites),
	}
}

// LookupEvent is published after every resolution and archived downstream.
type LookupEvent struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	LocationKey string    `json:"location_key"`
	RegionCode  string    `json:"region_code,omitempty"`
	RegionLabel string    `json:"region_label,omitempty"`
	Source      string    `json:"source"`
	Status      string    `json:"status"`
	SiteNames   []string  `json:"site_names"`
}

// NewLookupEvent stamps a new event with a random id.
func NewLookupEvent(now time.Time, key, regionCode, source, status string, sites []Site) LookupEvent {
	return LookupEvent{
		ID:          uuid.NewString(),
		Timestamp:   now.UTC(),
		LocationKey: key,
		RegionCode:  regionCode,
		Source:      source,
		Status:      status,
		SiteNames:   SiteNames(sites),
	}
}
