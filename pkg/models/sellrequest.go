package models

import (
	"encoding/json"
	"time"
)

// SellRequest is a sell/trade intake submission from the public form.
type SellRequest struct {
	ID            string          `json:"id"`
	Brand         string          `json:"brand"`
	Model         string          `json:"model"`
	ExpectedPrice string          `json:"expected_price,omitempty"`
	Condition     string          `json:"condition"`
	BoxAndPapers  bool            `json:"box_and_papers"`
	ImagesURL     string          `json:"images_url,omitempty"`
	ContactInfo   json.RawMessage `json:"contact_info"`
	Status        string          `json:"status"` // "New" until an admin picks it up
	CreatedAt     time.Time       `json:"created_at"`
}
