package importer_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchvault/internal/catalog"
	"watchvault/internal/images"
	"watchvault/internal/importer"
	"watchvault/pkg/database"
	"watchvault/pkg/utils"
)

// Re-running an unchanged import with image refresh must converge: one
// asset set, one referenced ref per source URL, no orphaned rows piling
// up in storage.
func TestRefreshedImportConverges(t *testing.T) {
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	}))
	defer srv.Close()

	repo := catalog.NewRepo(db)
	store := images.NewStore(db)
	ing := images.NewIngestor(store, utils.IngestConfig{
		FetchTimeout: 5 * time.Second,
		MaxBytes:     1 << 20,
		MaxImages:    12,
	})
	imp := importer.New(repo, ing)

	payload := []byte(`[{
		"product_id": "fb-1",
		"title": "2022 Rolex Submariner (126610LN)",
		"description": "Condition: MINT",
		"final_price": 15000,
		"images": ["` + srv.URL + `/1.jpg"]
	}]`)
	entries, err := importer.ParseListings(payload)
	require.NoError(t, err)

	opts := importer.Options{RefreshImages: true}

	first, err := imp.Run(context.Background(), entries, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := imp.Run(context.Background(), entries, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Updated)

	id, err := repo.FindIDByExternalID(context.Background(), "fb-1")
	require.NoError(t, err)

	var assetRows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM watch_images WHERE watch_id = ?`, id).Scan(&assetRows))
	assert.Equal(t, 1, assetRows, "second run must replace the asset set, not append to it")

	var maxSort sql.NullInt64
	require.NoError(t, db.QueryRow(`SELECT MAX(sort_order) FROM watch_images WHERE watch_id = ?`, id).Scan(&maxSort))
	require.True(t, maxSort.Valid)
	assert.Equal(t, int64(0), maxSort.Int64)

	w, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, w.Images, 1)
	assert.True(t, images.IsStoredImageURL(w.Images[0]))

	asset, err := store.Get(context.Background(), images.ParseStoredImageID(w.Images[0]))
	require.NoError(t, err)
	require.NotNil(t, asset, "the record's ref must point at a live asset")
}
