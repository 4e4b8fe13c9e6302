package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rolex Submariner 126610LN", "rolex-submariner-126610ln"},
		{"Patek Philippe / Nautilus (5711)", "patek-philippe-nautilus-5711"},
		{"  spaces   everywhere  ", "spaces-everywhere"},
		{"---already---hyphenated---", "already-hyphenated"},
		{"ALL CAPS", "all-caps"},
		{"§±!@#$", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ToSlug(tt.in), "input %q", tt.in)
	}
}

// fakeSlugIndex marks a fixed set of slugs as taken, except for one
// external id that owns them.
type fakeSlugIndex struct {
	taken   map[string]string // slug -> owning external id
	err     error
	queries int
}

func (f *fakeSlugIndex) SlugInUse(ctx context.Context, slug, exceptExternalID string) (bool, error) {
	f.queries++
	if f.err != nil {
		return false, f.err
	}
	owner, ok := f.taken[slug]
	if !ok {
		return false, nil
	}
	return exceptExternalID == "" || owner != exceptExternalID, nil
}

func TestEnsureUniqueSlug(t *testing.T) {
	t.Run("free slug kept as-is", func(t *testing.T) {
		idx := &fakeSlugIndex{taken: map[string]string{}}
		slug, err := EnsureUniqueSlug(context.Background(), idx, "rolex-submariner", "fb-1")
		require.NoError(t, err)
		assert.Equal(t, "rolex-submariner", slug)
	})

	t.Run("collision appends numeric suffix", func(t *testing.T) {
		idx := &fakeSlugIndex{taken: map[string]string{
			"rolex-submariner":   "other-1",
			"rolex-submariner-1": "other-2",
		}}
		slug, err := EnsureUniqueSlug(context.Background(), idx, "rolex-submariner", "fb-1")
		require.NoError(t, err)
		assert.Equal(t, "rolex-submariner-2", slug)
	})

	t.Run("own record does not collide with itself", func(t *testing.T) {
		idx := &fakeSlugIndex{taken: map[string]string{"rolex-submariner": "fb-1"}}
		slug, err := EnsureUniqueSlug(context.Background(), idx, "rolex-submariner", "fb-1")
		require.NoError(t, err)
		assert.Equal(t, "rolex-submariner", slug)
	})

	t.Run("empty base falls back to external id", func(t *testing.T) {
		idx := &fakeSlugIndex{taken: map[string]string{}}
		slug, err := EnsureUniqueSlug(context.Background(), idx, "", "FB 123")
		require.NoError(t, err)
		assert.Equal(t, "fb-123", slug)
	})

	t.Run("empty base and external id fall back to placeholder", func(t *testing.T) {
		idx := &fakeSlugIndex{taken: map[string]string{}}
		slug, err := EnsureUniqueSlug(context.Background(), idx, "", "")
		require.NoError(t, err)
		assert.Equal(t, "inventory-item", slug)
	})

	t.Run("exhaustion fails instead of looping", func(t *testing.T) {
		taken := map[string]string{"base": "other"}
		for i := 1; i <= maxSlugAttempts; i++ {
			taken[fmt.Sprintf("base-%d", i)] = "other"
		}
		idx := &fakeSlugIndex{taken: taken}

		_, err := EnsureUniqueSlug(context.Background(), idx, "base", "fb-1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSlugExhausted))
		assert.Equal(t, maxSlugAttempts, idx.queries)
	})

	t.Run("store error propagates", func(t *testing.T) {
		idx := &fakeSlugIndex{err: errors.New("db closed")}
		_, err := EnsureUniqueSlug(context.Background(), idx, "base", "fb-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db closed")
	})
}
