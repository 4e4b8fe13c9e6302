package images

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"watchvault/pkg/models"
	"watchvault/pkg/utils"
)

// RoutePrefix is where stored assets are served from. Reference URLs
// built from it are stable for the asset's lifetime.
const RoutePrefix = "/api/watch-images/"

func BuildImageURL(id string) string { return RoutePrefix + id }

func IsStoredImageURL(value string) bool { return strings.HasPrefix(value, RoutePrefix) }

// ParseStoredImageID extracts the asset id from a stored reference URL,
// or "" when the value is not one.
func ParseStoredImageID(value string) string {
	if !IsStoredImageURL(value) {
		return ""
	}
	rest := strings.TrimPrefix(value, RoutePrefix)
	id, _, _ := strings.Cut(rest, "?")
	return id
}

// DetectContentType sniffs the leading bytes against the magic numbers
// for JPEG, PNG, GIF and WEBP. Returns "" when nothing matches.
func DetectContentType(b []byte) string {
	switch {
	case len(b) >= 3 && b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF:
		return "image/jpeg"
	case len(b) >= 8 && bytes.Equal(b[:8], []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return "image/png"
	case len(b) >= 6 && (bytes.Equal(b[:6], []byte("GIF87a")) || bytes.Equal(b[:6], []byte("GIF89a"))):
		return "image/gif"
	case len(b) >= 12 && bytes.Equal(b[:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return "image/webp"
	default:
		return ""
	}
}

// Ingestor fetches remote image URLs into owned assets.
type Ingestor struct {
	Store    *Store
	Client   *http.Client
	Timeout  time.Duration
	MaxBytes int64
	MaxCount int
}

func NewIngestor(store *Store, cfg utils.IngestConfig) *Ingestor {
	return &Ingestor{
		Store:    store,
		Client:   &http.Client{}, // redirects followed; timeout is per request via context
		Timeout:  cfg.FetchTimeout,
		MaxBytes: cfg.MaxBytes,
		MaxCount: cfg.MaxImages,
	}
}

// IngestForWatch fetches each URL in order and persists the bytes as
// assets with ascending sort order. The returned refs parallel the
// (deduplicated, capped) input: a stored reference URL on success, the
// original URL on fetch
// failure. failed lists the fallen-back URLs. err is reserved for
// store-level failures, which abort the loop.
func (ing *Ingestor) IngestForWatch(ctx context.Context, watchID string, urls []string) (refs []string, failed []string, err error) {
	unique := dedupe(urls, ing.MaxCount)

	// A fully external list is an externally-hosted -> internally-owned
	// transition: the asset set is replaced wholesale and sort order
	// restarts at zero. Re-running the same list then converges instead
	// of stacking orphaned copies. A mixed list appends after the
	// current maximum.
	sortOrder := 0
	if allExternal(unique) {
		if err := ing.Store.DeleteForWatch(ctx, watchID); err != nil {
			return nil, nil, err
		}
	} else {
		max, err := ing.Store.MaxSortOrder(ctx, watchID)
		if err != nil {
			return nil, nil, err
		}
		sortOrder = max + 1
	}

	for _, u := range unique {
		// Already-owned references pass through untouched, so re-running
		// ingestion over a mixed list is safe.
		if IsStoredImageURL(u) {
			refs = append(refs, u)
			continue
		}

		data, contentType, fetchErr := ing.fetch(ctx, u)
		if fetchErr != nil {
			log.Printf("[images] fetch %s: %v", u, fetchErr)
			refs = append(refs, u)
			failed = append(failed, u)
			continue
		}

		id, err := ing.Store.Create(ctx, &models.ImageAsset{
			WatchID:     watchID,
			SortOrder:   sortOrder,
			FileName:    fileNameFromURL(u),
			ContentType: contentType,
			ByteSize:    int64(len(data)),
			Data:        data,
			SourceURL:   u,
		})
		if err != nil {
			return nil, nil, err
		}

		refs = append(refs, BuildImageURL(id))
		sortOrder++
	}

	return refs, failed, nil
}

// fetch reads the full payload into memory under the size cap. The
// timeout cancels the underlying connection, not just the wait.
func (ing *Ingestor) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, ing.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	resp, err := ing.Client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, ing.MaxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > ing.MaxBytes {
		return nil, "", fmt.Errorf("payload exceeds %d bytes", ing.MaxBytes)
	}

	return data, resolveContentType(resp.Header.Get("Content-Type"), data), nil
}

// resolveContentType trusts the response header only when it claims an
// image type; otherwise the sniffed magic-number type wins, with
// octet-stream as the last resort.
func resolveContentType(header string, data []byte) string {
	declared, _, _ := strings.Cut(header, ";")
	declared = strings.TrimSpace(declared)
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	if sniffed := DetectContentType(data); sniffed != "" {
		return sniffed
	}
	return "application/octet-stream"
}

func allExternal(urls []string) bool {
	if len(urls) == 0 {
		return false
	}
	for _, u := range urls {
		if IsStoredImageURL(u) {
			return false
		}
	}
	return true
}

func dedupe(urls []string, max int) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}

func fileNameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
