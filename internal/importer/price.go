package importer

import (
	"regexp"

	"github.com/shopspring/decimal"
)

var nonPriceRe = regexp.MustCompile(`[^0-9.]`)

// ParsePrice turns a loosely-formatted price ("$15,000.00", "15000")
// into an exact decimal. Unparsable input resolves to zero, never an
// error; a missing price must not sink the whole entry.
func ParsePrice(raw string) decimal.Decimal {
	numeric := nonPriceRe.ReplaceAllString(raw, "")
	if numeric == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(numeric)
	if err != nil {
		return decimal.Zero
	}
	return d
}
