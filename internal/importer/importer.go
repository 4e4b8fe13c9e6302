package importer

import (
	"context"
	"fmt"
	"log"

	"watchvault/pkg/models"
)

// CatalogStore is the catalog surface the importer writes through.
type CatalogStore interface {
	SlugIndex

	// FindIDByExternalID returns the internal id for an external id, or
	// "" when no record exists.
	FindIDByExternalID(ctx context.Context, externalID string) (string, error)

	// Create inserts a new record and returns its internal id.
	Create(ctx context.Context, w *models.Watch) (string, error)

	// Replace overwrites the normalized fields, image list, slug and
	// source URL of an existing record. An empty w.Visibility leaves the
	// stored visibility untouched.
	Replace(ctx context.Context, id string, w *models.Watch) error

	// UpdateImages overwrites just the record's image reference list.
	UpdateImages(ctx context.Context, id string, images []string) error
}

// ImageIngestor fetches remote images into owned assets. failed lists
// the URLs that could not be ingested (their original URL is kept in
// refs as a fallback); err is reserved for store-level failures.
type ImageIngestor interface {
	IngestForWatch(ctx context.Context, watchID string, urls []string) (refs []string, failed []string, err error)
}

// Options are caller overrides for a batch run.
type Options struct {
	ForceStatus     string // force every entry's sale status (e.g. sold-archive imports)
	ForceVisibility string // force Public/Private instead of the draft default
	ForceFeatured   *bool
	RefreshImages   bool // fetch declared image URLs into owned assets
}

// Diagnostic is one per-entry note from a batch run. Expected per-entry
// conditions land here instead of aborting the batch.
type Diagnostic struct {
	ExternalID string `json:"external_id,omitempty"`
	Message    string `json:"message"`
}

// Summary is the aggregate result of one batch run. Every entry
// contributes to exactly one of the three counters.
type Summary struct {
	Created     int          `json:"created"`
	Updated     int          `json:"updated"`
	Skipped     int          `json:"skipped"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Importer orchestrates a batch of raw listings into the catalog.
type Importer struct {
	Catalog CatalogStore
	Images  ImageIngestor // optional; nil disables image refresh
}

func New(catalog CatalogStore, images ImageIngestor) *Importer {
	return &Importer{Catalog: catalog, Images: images}
}

// Run processes entries strictly sequentially: one listing's
// normalize/upsert/ingest cycle completes before the next begins, so
// last write wins per external id. Re-running the same file against the
// same catalog state is safe and convergent. Store-level failures abort
// the run; everything else is per-entry best effort. Cancellation is
// honoured between entries and returns the partial summary.
func (imp *Importer) Run(ctx context.Context, entries []models.RawListing, opts Options) (Summary, error) {
	var sum Summary

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		created, skipped, err := imp.upsertListing(ctx, entry, opts, &sum)
		if err != nil {
			return sum, err
		}
		switch {
		case skipped:
			sum.Skipped++
		case created:
			sum.Created++
		default:
			sum.Updated++
		}
	}

	return sum, nil
}

func (imp *Importer) upsertListing(ctx context.Context, entry models.RawListing, opts Options, sum *Summary) (created, skipped bool, err error) {
	externalID := entry.ExternalID()
	if externalID == "" {
		// The external id is the only reliable de-duplication key from
		// an untrusted source.
		sum.Diagnostics = append(sum.Diagnostics, Diagnostic{Message: "missing product_id, entry skipped"})
		return false, true, nil
	}

	title := entry.Title
	if title == "" {
		title = "Untitled Listing"
	}

	n := Normalize(title, entry.Description)
	if n.YearGuessed {
		log.Printf("[importer] no year found for %s, assuming current year", externalID)
	}

	slugBase := ToSlug(fmt.Sprintf("%s-%s-%s", n.Brand, n.Model, n.Reference))
	slug, err := EnsureUniqueSlug(ctx, imp.Catalog, slugBase, externalID)
	if err != nil {
		if ctx.Err() != nil {
			return false, false, ctx.Err()
		}
		sum.Diagnostics = append(sum.Diagnostics, Diagnostic{ExternalID: externalID, Message: err.Error()})
		return false, true, nil
	}

	status := entry.Status
	if status == "" {
		status = models.StatusAvailable
	}
	if opts.ForceStatus != "" {
		status = opts.ForceStatus
	}

	featured := entry.Featured
	if opts.ForceFeatured != nil {
		featured = *opts.ForceFeatured
	}

	w := &models.Watch{
		ExternalID:   externalID,
		Slug:         slug,
		Brand:        n.Brand,
		Model:        n.Model,
		Reference:    n.Reference,
		Year:         n.Year,
		Condition:    n.Condition,
		Price:        ParsePrice(entry.PriceRaw()),
		Status:       status,
		Visibility:   opts.ForceVisibility,
		BoxAndPapers: entry.HasBoxAndPapers(),
		Description:  entry.Description,
		Images:       entry.ImageURLs(),
		Featured:     featured,
		SourceURL:    entry.URL,
	}

	existingID, err := imp.Catalog.FindIDByExternalID(ctx, externalID)
	if err != nil {
		return false, false, fmt.Errorf("lookup external id %s: %w", externalID, err)
	}

	id := existingID
	if existingID == "" {
		if id, err = imp.Catalog.Create(ctx, w); err != nil {
			return false, false, fmt.Errorf("create %s: %w", externalID, err)
		}
	} else if err := imp.Catalog.Replace(ctx, existingID, w); err != nil {
		return false, false, fmt.Errorf("update %s: %w", externalID, err)
	}

	if opts.RefreshImages && imp.Images != nil && len(w.Images) > 0 {
		refs, failed, err := imp.Images.IngestForWatch(ctx, id, w.Images)
		if err != nil {
			return false, false, fmt.Errorf("ingest images for %s: %w", externalID, err)
		}
		for _, u := range failed {
			sum.Diagnostics = append(sum.Diagnostics, Diagnostic{
				ExternalID: externalID,
				Message:    fmt.Sprintf("image fetch failed, kept source URL: %s", u),
			})
		}
		if err := imp.Catalog.UpdateImages(ctx, id, refs); err != nil {
			return false, false, fmt.Errorf("update images for %s: %w", externalID, err)
		}
	}

	return existingID == "", false, nil
}
