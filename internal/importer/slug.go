package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	slugFallback = "inventory-item"

	// Suffix retries are bounded so a pathological number of collisions
	// fails loudly instead of looping forever.
	maxSlugAttempts = 200
)

// ErrSlugExhausted is returned when every candidate suffix up to the
// attempt cap is already taken.
var ErrSlugExhausted = errors.New("slug suffixes exhausted")

// SlugIndex is the slice of the catalog store the slug resolver needs.
// exceptExternalID exempts the record being imported, so re-importing a
// listing under a regenerated slug never collides with itself.
type SlugIndex interface {
	SlugInUse(ctx context.Context, slug, exceptExternalID string) (bool, error)
}

// ToSlug lower-cases the text, replaces every run of non-alphanumeric
// characters with a single hyphen and trims leading/trailing hyphens.
func ToSlug(value string) string {
	value = strings.ToLower(value)

	var b strings.Builder
	b.Grow(len(value))

	prevHyphen := false
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prevHyphen = false
			continue
		}
		if !prevHyphen {
			b.WriteByte('-')
			prevHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// EnsureUniqueSlug resolves base to a slug no other record holds,
// appending -1, -2, ... on collision. "Other" means any record whose
// external id differs from externalID.
func EnsureUniqueSlug(ctx context.Context, idx SlugIndex, base, externalID string) (string, error) {
	initial := base
	if initial == "" {
		if externalID != "" {
			initial = ToSlug(externalID)
		}
		if initial == "" {
			initial = slugFallback
		}
	}

	slug := initial
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		taken, err := idx.SlugInUse(ctx, slug, externalID)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", slug, err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", initial, attempt)
	}

	return "", fmt.Errorf("%w: base %q", ErrSlugExhausted, initial)
}
