package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchvault/pkg/database"
	"watchvault/pkg/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func testWatch(externalID, slug string) *models.Watch {
	return &models.Watch{
		ExternalID:   externalID,
		Slug:         slug,
		Brand:        "Rolex",
		Model:        "Submariner",
		Reference:    "126610LN",
		Year:         2022,
		Condition:    "Mint",
		BoxAndPapers: true,
		Description:  "Condition: MINT",
		Images:       []string{"https://cdn/1.jpg"},
		Tags:         []string{"diver"},
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, testWatch("fb-1", "rolex-submariner-126610ln"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	w, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "fb-1", w.ExternalID)
	assert.Equal(t, "Rolex", w.Brand)
	assert.Equal(t, []string{"https://cdn/1.jpg"}, w.Images)
	assert.Equal(t, []string{"diver"}, w.Tags)
	assert.Equal(t, models.StatusAvailable, w.Status, "status defaults")
	assert.Equal(t, models.VisibilityPrivate, w.Visibility, "new records start as drafts")
	assert.False(t, w.CreatedAt.IsZero())

	bySlug, err := repo.GetBySlug(ctx, "rolex-submariner-126610ln")
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, id, bySlug.ID)

	missing, err := repo.GetBySlug(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing, "missing slug is not an error")
}

func TestFindIDByExternalID(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, testWatch("fb-1", "slug-1"))
	require.NoError(t, err)

	found, err := repo.FindIDByExternalID(ctx, "fb-1")
	require.NoError(t, err)
	assert.Equal(t, id, found)

	none, err := repo.FindIDByExternalID(ctx, "fb-unknown")
	require.NoError(t, err)
	assert.Equal(t, "", none)
}

func TestSlugInUse(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, testWatch("fb-1", "shared-slug"))
	require.NoError(t, err)

	manual := testWatch("", "manual-slug")
	_, err = repo.Create(ctx, manual)
	require.NoError(t, err)

	taken, err := repo.SlugInUse(ctx, "shared-slug", "")
	require.NoError(t, err)
	assert.True(t, taken)

	// The owning external id is exempt, so re-imports don't collide
	// with their own record.
	taken, err = repo.SlugInUse(ctx, "shared-slug", "fb-1")
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = repo.SlugInUse(ctx, "shared-slug", "fb-other")
	require.NoError(t, err)
	assert.True(t, taken)

	// Records without an external id are never exempt.
	taken, err = repo.SlugInUse(ctx, "manual-slug", "fb-1")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.SlugInUse(ctx, "free-slug", "")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestReplace(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, testWatch("fb-1", "slug-1"))
	require.NoError(t, err)
	require.NoError(t, repo.SetVisibility(ctx, id, models.VisibilityPublic))

	updated := testWatch("fb-1", "slug-1")
	updated.Model = "Submariner Date"
	updated.Status = models.StatusPending
	// Visibility left empty: the admin-owned published state must survive.

	require.NoError(t, repo.Replace(ctx, id, updated))

	w, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Submariner Date", w.Model)
	assert.Equal(t, models.StatusPending, w.Status)
	assert.Equal(t, models.VisibilityPublic, w.Visibility)

	// An explicit visibility does overwrite.
	updated.Visibility = models.VisibilityPrivate
	require.NoError(t, repo.Replace(ctx, id, updated))
	w, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPrivate, w.Visibility)

	err = repo.Replace(ctx, "missing-id", updated)
	require.Error(t, err)
}

func TestUpdateImages(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, testWatch("fb-1", "slug-1"))
	require.NoError(t, err)

	refs := []string{"/api/watch-images/a", "/api/watch-images/b"}
	require.NoError(t, repo.UpdateImages(ctx, id, refs))

	w, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, refs, w.Images)
}

func TestSetStatusAndVisibility(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, testWatch("fb-1", "slug-1"))
	require.NoError(t, err)

	require.NoError(t, repo.SetStatus(ctx, id, models.StatusSold))
	require.NoError(t, repo.SetVisibility(ctx, id, models.VisibilityPublic))

	w, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSold, w.Status)
	assert.Equal(t, models.VisibilityPublic, w.Visibility)

	require.Error(t, repo.SetStatus(ctx, "missing-id", models.StatusSold))
}

func TestListFilters(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	sub := testWatch("fb-1", "slug-1")
	sub.Visibility = models.VisibilityPublic
	_, err := repo.Create(ctx, sub)
	require.NoError(t, err)

	speedy := testWatch("fb-2", "slug-2")
	speedy.Brand = "Omega"
	speedy.Model = "Speedmaster"
	speedy.Reference = "310.30.42.50.01.001"
	speedy.Visibility = models.VisibilityPublic
	speedy.Status = models.StatusSold
	_, err = repo.Create(ctx, speedy)
	require.NoError(t, err)

	draft := testWatch("fb-3", "slug-3")
	_, err = repo.Create(ctx, draft) // stays Private
	require.NoError(t, err)

	public, err := repo.List(ctx, ListQuery{Visibility: models.VisibilityPublic})
	require.NoError(t, err)
	assert.Len(t, public, 2)

	total, err := repo.Count(ctx, ListQuery{Visibility: models.VisibilityPublic})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	sold, err := repo.List(ctx, ListQuery{Visibility: models.VisibilityPublic, Status: models.StatusSold})
	require.NoError(t, err)
	require.Len(t, sold, 1)
	assert.Equal(t, "Omega", sold[0].Brand)

	byBrand, err := repo.List(ctx, ListQuery{Brand: "omega"})
	require.NoError(t, err)
	require.Len(t, byBrand, 1)
	assert.Equal(t, "slug-2", byBrand[0].Slug)

	byKeyword, err := repo.List(ctx, ListQuery{Q: "speedmaster"})
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListFeaturedFirst(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	plain := testWatch("fb-1", "slug-1")
	_, err := repo.Create(ctx, plain)
	require.NoError(t, err)

	featured := testWatch("fb-2", "slug-2")
	featured.Featured = true
	_, err = repo.Create(ctx, featured)
	require.NoError(t, err)

	items, err := repo.List(ctx, ListQuery{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "slug-2", items[0].Slug, "featured records sort first")
}

func TestGetRejectsCorruptListColumns(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, testWatch("fb-1", "slug-1"))
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE watches SET images = 'not-json' WHERE id = ?`, id)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, id)
	require.Error(t, err, "a corrupt row must surface, not read back as empty")
	assert.Contains(t, err.Error(), "images")
}

func TestUniqueViolationField(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, testWatch("fb-1", "slug-1"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, testWatch("fb-2", "slug-1"))
	require.Error(t, err)
	assert.Equal(t, "slug", UniqueViolationField(err))

	_, err = repo.Create(ctx, testWatch("fb-1", "slug-other"))
	require.Error(t, err)
	assert.Equal(t, "external_id", UniqueViolationField(err))

	assert.Equal(t, "", UniqueViolationField(context.Canceled))
	assert.Equal(t, "", UniqueViolationField(nil))
}
