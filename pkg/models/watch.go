package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale lifecycle, admin-driven.
const (
	StatusAvailable = "Available"
	StatusPending   = "Pending"
	StatusSold      = "Sold"
)

// Visibility controls public listing without deleting; toggling to
// Private is the soft-delete mechanism.
const (
	VisibilityPublic  = "Public"
	VisibilityPrivate = "Private"
)

// Watch is the canonical catalog record. external sources are mapped
// into this structure first, then we write to the DB from this
// representation.
type Watch struct {
	ID           string          `json:"id"`                    // internal id (uuid), stable
	ExternalID   string          `json:"external_id,omitempty"` // marketplace listing id; upsert key when present
	Slug         string          `json:"slug"`                  // unique, URL-safe, human-derived
	Brand        string          `json:"brand"`
	Model        string          `json:"model"`
	Reference    string          `json:"reference"`
	Year         int             `json:"year"`
	Condition    string          `json:"condition"`
	Price        decimal.Decimal `json:"price"` // exact decimal, never float
	Status       string          `json:"status"`
	Visibility   string          `json:"visibility"`
	BoxAndPapers bool            `json:"box_and_papers"`
	Description  string          `json:"description"`
	Images       []string        `json:"images"` // ordered image refs (owned or external URLs)
	Tags         []string        `json:"tags"`
	Featured     bool            `json:"featured"`
	SourceURL    string          `json:"source_url,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ImageAsset holds the bytes for one stored catalog image. The watch's
// Images list references assets by id; the asset's bytes are the single
// source of truth for rendering.
type ImageAsset struct {
	ID          string    `json:"id"`
	WatchID     string    `json:"watch_id"`
	SortOrder   int       `json:"sort_order"`
	FileName    string    `json:"file_name,omitempty"`
	ContentType string    `json:"content_type"`
	ByteSize    int64     `json:"byte_size"`
	Data        []byte    `json:"-"`
	SourceURL   string    `json:"source_url,omitempty"` // provenance
	CreatedAt   time.Time `json:"created_at"`
}
