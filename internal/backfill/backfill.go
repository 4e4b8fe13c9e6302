// Package backfill holds one-shot maintenance passes over the stored
// catalog: re-applying normalization rules after they change, and
// migrating externally-hosted images into owned assets. Both passes are
// convergent; running them twice changes nothing the second time.
package backfill

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"watchvault/internal/catalog"
	"watchvault/internal/images"
	"watchvault/internal/importer"
)

type Summary struct {
	Updated int `json:"updated"`
	Failed  int `json:"failed,omitempty"`
	Skipped int `json:"skipped"`
}

type Runner struct {
	Catalog *catalog.Repo
	Ingest  *images.Ingestor
}

func NewRunner(cat *catalog.Repo, ingest *images.Ingestor) *Runner {
	return &Runner{Catalog: cat, Ingest: ingest}
}

var externalURLRe = regexp.MustCompile(`(?i)^https?://`)

func isExternalURL(value string) bool {
	return externalURLRe.MatchString(strings.TrimSpace(value))
}

// Records re-runs brand/condition/model normalization on every stored
// record, for catching up after the canonical dictionaries change.
// Records whose fields already match are left untouched.
func (r *Runner) Records(ctx context.Context) (Summary, error) {
	items, err := r.Catalog.All(ctx)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, item := range items {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		candidates := strings.Join(nonEmpty(item.Brand, item.Model, item.Description), " ")
		detected := importer.DetectCanonicalBrand(candidates)

		nextBrand := item.Brand
		if detected != "" {
			nextBrand = detected
		}

		nextCondition := importer.NormalizeCondition(item.Condition)

		nextModel := item.Model
		if detected != "" {
			nextModel = importer.StripBrandPrefix(item.Model, detected)
		}
		if nextModel == "" {
			nextModel = item.Model
		}

		nextTags := item.Tags
		if detected != "" && !contains(item.Tags, detected) {
			nextTags = append(append([]string{}, item.Tags...), detected)
		}

		if nextBrand == item.Brand && nextCondition == item.Condition &&
			nextModel == item.Model && len(nextTags) == len(item.Tags) {
			sum.Skipped++
			continue
		}

		if err := r.Catalog.UpdateNormalized(ctx, item.ID, nextBrand, nextModel, nextCondition, nextTags); err != nil {
			return sum, fmt.Errorf("backfill %s: %w", item.Slug, err)
		}
		sum.Updated++
	}

	return sum, nil
}

// Migrate moves externally-hosted image URLs into owned assets. When a
// record's images are all external, its asset set is replaced
// wholesale; otherwise new assets append after the current maximum sort
// order. Records whose fetches all fail keep their external URLs and
// are counted as failed, never corrupted.
func (r *Runner) Migrate(ctx context.Context) (Summary, error) {
	items, err := r.Catalog.All(ctx)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, item := range items {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		normalized := nonEmptyTrimmed(item.Images)

		hasExternal := false
		for _, src := range normalized {
			if isExternalURL(src) {
				hasExternal = true
				break
			}
		}
		if !hasExternal {
			sum.Skipped++
			continue
		}

		// The ingestor replaces the asset set wholesale when the list is
		// fully external, and appends otherwise.
		refs, failed, err := r.Ingest.IngestForWatch(ctx, item.ID, normalized)
		if err != nil {
			return sum, fmt.Errorf("ingest for %s: %w", item.Slug, err)
		}
		if len(refs) == 0 {
			sum.Skipped++
			continue
		}

		if len(failed) == len(refs) {
			sum.Failed++
			log.Printf("[backfill] failed to fetch images for %s (upstream blocked)", item.Slug)
			continue
		}

		if err := r.Catalog.UpdateImages(ctx, item.ID, refs); err != nil {
			return sum, fmt.Errorf("update images for %s: %w", item.Slug, err)
		}
		sum.Updated++
		log.Printf("[backfill] stored %d images for %s", len(refs)-len(failed), item.Slug)
	}

	return sum, nil
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func nonEmptyTrimmed(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
