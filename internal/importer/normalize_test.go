package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFullListing(t *testing.T) {
	n := Normalize(
		"2022 Rolex Submariner (126610LN)",
		"Condition: MINT\nFull set with box and papers.",
	)

	assert.Equal(t, "Rolex", n.Brand)
	assert.Equal(t, "Submariner", n.Model)
	assert.Equal(t, "126610LN", n.Reference)
	assert.Equal(t, 2022, n.Year)
	assert.Equal(t, "Mint", n.Condition)
	assert.False(t, n.YearGuessed)
}

func TestDetectBrand(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"canonical name", "Rolex Daytona", "Rolex"},
		{"case insensitive", "ROLEX submariner", "Rolex"},
		{"zero-for-o obfuscation", "R0LEX Submariner Date", "Rolex"},
		{"omega obfuscation", "0MEGA Speedmaster", "Omega"},
		{"ap abbreviation", "AP Royal Oak 15500ST", "Audemars Piguet"},
		{"ap with dots", "A.P. Royal Oak", "Audemars Piguet"},
		{"patek shorthand", "Patek Nautilus 5711", "Patek Philippe"},
		{"rm abbreviation", "RM 011 Felipe Massa", "Richard Mille"},
		{"two word brand", "Richard Mille RM 035", "Richard Mille"},
		{"unknown brand falls back to first word", "Breitling Navitimer", "Breitling"},
		{"leading year skipped for fallback", "2021 Grand Seiko SBGA211", "Grand"},
		{"empty title", "", DefaultBrand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectBrand(tt.title))
		})
	}
}

func TestDetectCanonicalBrandReturnsEmptyWhenUnmatched(t *testing.T) {
	assert.Equal(t, "", DetectCanonicalBrand("Breitling Navitimer chronograph"))
	assert.Equal(t, "Tudor", DetectCanonicalBrand("tudor black bay 58"))
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        int
		wantGuessed bool
	}{
		{"label wins over title", "1998 Rolex Datejust", "Year: 2015", 2015, false},
		{"title token", "2019 Omega Seamaster", "no label here", 2019, false},
		{"year mid-title", "Rolex GMT 2007 pepsi", "", 2007, false},
		{"reference digits not a year", "Rolex Submariner 14060", "", time.Now().Year(), true},
		{"nothing found", "Cartier Santos", "great watch", time.Now().Year(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, guessed := ParseYear(tt.title, tt.description)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantGuessed, guessed)
		})
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        string
	}{
		{"ref label", "Rolex Submariner", "Ref: 126610LN", "126610LN"},
		{"ref label no colon", "Rolex Submariner", "Ref 116610", "116610"},
		{"parens in title", "Rolex Submariner (126610LN)", "", "126610LN"},
		{"label beats parens", "Rolex Sub (116610LN)", "Ref: 126610LN", "126610LN"},
		{"dotted reference", "AP Royal Oak", "Ref: 15500ST.OO.1220ST.01", "15500ST.OO.1220ST.01"},
		{"nothing", "Rolex Submariner", "", UnlistedReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseReference(tt.title, tt.description))
		})
	}
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"label", "Condition: MINT", "MINT"},
		{"label with trailing text on next line", "Condition: Very Good\nIncludes box", "Very Good"},
		{"known phrase without label", "The watch is in excellent shape", "Excellent"},
		{"very good beats good", "Overall very good example", "Very Good"},
		{"default", "a watch", defaultCondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCondition(tt.description))
		})
	}
}

func TestNormalizeCondition(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"MINT", "Mint"},
		{"mint", "Mint"},
		{"  brand   new ", "Brand New"},
		{"NEW UNWORN", "Brand New Unworn"},
		{"very good", "Very Good"},
		{"somewhat scratched", "Somewhat Scratched"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCondition(tt.in), "input %q", tt.in)
	}
}

// Applying the normalizer to its own output must be a no-op, otherwise
// re-running maintenance passes would keep rewriting records.
func TestNormalizeConditionIdempotent(t *testing.T) {
	inputs := []string{"MINT", "brand new unworn", "Very   Good", "Somewhat Scratched", "fair"}
	for _, in := range inputs {
		once := NormalizeCondition(in)
		assert.Equal(t, once, NormalizeCondition(once), "input %q", in)
	}
}

func TestDeriveModel(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		brand     string
		reference string
		want      string
	}{
		{"strips year brand and ref", "2022 Rolex Submariner (126610LN)", "Rolex", "126610LN", "Submariner"},
		{"strips alias prefix", "AP Royal Oak 15500ST", "Audemars Piguet", "15500ST", "Royal Oak"},
		{"fallback brand stripped", "Breitling Navitimer", "Breitling", UnlistedReference, "Navitimer"},
		{"reference removed anywhere", "Rolex 126610LN Submariner", "Rolex", "126610LN", "Submariner"},
		{"empty result falls back to title", "Rolex", "Rolex", UnlistedReference, "Rolex"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveModel(tt.title, tt.brand, tt.reference))
		})
	}
}

func TestStripBrandPrefix(t *testing.T) {
	assert.Equal(t, "Submariner", StripBrandPrefix("Rolex Submariner", "Rolex"))
	assert.Equal(t, "Royal Oak", StripBrandPrefix("AP Royal Oak", "Audemars Piguet"))
	assert.Equal(t, "Navitimer", StripBrandPrefix("Breitling Navitimer", "Breitling"))
	assert.Equal(t, "Submariner", StripBrandPrefix("Submariner", "Rolex"))
}
