package importer

import (
	"encoding/json"
	"fmt"

	"watchvault/pkg/models"
)

// ParseListings decodes a marketplace export. The document is either a
// bare array of listings or an object wrapping the same array under
// "items" or "data".
func ParseListings(data []byte) ([]models.RawListing, error) {
	var entries []models.RawListing
	if err := json.Unmarshal(data, &entries); err == nil {
		return entries, nil
	}

	var wrapped struct {
		Items []models.RawListing `json:"items"`
		Data  []models.RawListing `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	if wrapped.Items != nil {
		return wrapped.Items, nil
	}
	if wrapped.Data != nil {
		return wrapped.Data, nil
	}
	return nil, nil
}
