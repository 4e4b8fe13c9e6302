package models

import (
	"encoding/json"
	"strings"
)

// RawListing is a single scraped marketplace entry. Nothing about it is
// trusted: every field is optional and loosely typed, so all access goes
// through the accessor methods below.
type RawListing struct {
	ProductID    json.RawMessage `json:"product_id"`  // string or number
	FinalPrice   json.RawMessage `json:"final_price"` // number or formatted string
	Images       []string        `json:"images"`
	URL          string          `json:"url"`
	Description  string          `json:"description"`
	Title        string          `json:"title"`
	Status       string          `json:"status"`
	Featured     bool            `json:"featured"`
	BoxAndPapers *bool           `json:"boxAndPapers"`
}

// ExternalID returns the listing's marketplace id as a string, or ""
// when it is absent or unusable.
func (r RawListing) ExternalID() string {
	return scalarString(r.ProductID)
}

// PriceRaw returns the price field as text regardless of whether the
// source encoded it as a JSON number or string.
func (r RawListing) PriceRaw() string {
	return scalarString(r.FinalPrice)
}

// ImageURLs returns the declared image URLs with blanks dropped.
func (r RawListing) ImageURLs() []string {
	out := make([]string, 0, len(r.Images))
	for _, u := range r.Images {
		if s := strings.TrimSpace(u); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// HasBoxAndPapers defaults to true when the flag is missing, matching
// how the marketplace export omits it for complete sets.
func (r RawListing) HasBoxAndPapers() bool {
	if r.BoxAndPapers == nil {
		return true
	}
	return *r.BoxAndPapers
}

func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
