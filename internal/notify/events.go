package notify

import "time"

// Event types pushed to the admin dashboard feed.
const (
	EventCreated  = "catalog.created"
	EventUpdated  = "catalog.updated"
	EventImported = "catalog.imported"
)

type CatalogEvent struct {
	Type    string    `json:"type"`
	WatchID string    `json:"watch_id,omitempty"`
	Slug    string    `json:"slug,omitempty"`
	Created int       `json:"created,omitempty"`
	Updated int       `json:"updated,omitempty"`
	Skipped int       `json:"skipped,omitempty"`
	At      time.Time `json:"at"`
}
