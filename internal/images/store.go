package images

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"watchvault/pkg/models"
)

// Store persists image assets. Bytes live in the database; the watch
// record only carries reference URLs built from asset ids.
type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Create inserts a fully-read asset and returns its id. Bytes must be
// complete before calling; an asset row is never partially written.
func (s *Store) Create(ctx context.Context, a *models.ImageAsset) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO watch_images (id, watch_id, sort_order, file_name, content_type, byte_size, data, source_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.WatchID, a.SortOrder, nullString(a.FileName), a.ContentType, a.ByteSize, a.Data, nullString(a.SourceURL))
	if err != nil {
		return "", fmt.Errorf("create image asset: %w", err)
	}
	return a.ID, nil
}

// MaxSortOrder returns the highest sort order stored for a watch, or -1
// when it has no assets, so callers can append at max+1.
func (s *Store) MaxSortOrder(ctx context.Context, watchID string) (int, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT sort_order FROM watch_images
		WHERE watch_id = ?
		ORDER BY sort_order DESC, created_at DESC
		LIMIT 1
	`, watchID)

	var max int
	if err := row.Scan(&max); err != nil {
		if err == sql.ErrNoRows {
			return -1, nil
		}
		return 0, fmt.Errorf("max sort order: %w", err)
	}
	return max, nil
}

// DeleteForWatch removes every asset of a watch. Used when a record's
// image set is replaced wholesale during migration.
func (s *Store) DeleteForWatch(ctx context.Context, watchID string) error {
	if _, err := s.DB.ExecContext(ctx, `
		DELETE FROM watch_images WHERE watch_id = ?
	`, watchID); err != nil {
		return fmt.Errorf("delete images for watch: %w", err)
	}
	return nil
}

// Get loads one asset including its bytes.
func (s *Store) Get(ctx context.Context, id string) (*models.ImageAsset, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, watch_id, sort_order, file_name, content_type, byte_size, data, source_url, created_at
		FROM watch_images
		WHERE id = ?
	`, id)

	var (
		a         models.ImageAsset
		fileName  sql.NullString
		sourceURL sql.NullString
		createdAt time.Time
	)
	if err := row.Scan(&a.ID, &a.WatchID, &a.SortOrder, &fileName, &a.ContentType, &a.ByteSize, &a.Data, &sourceURL, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get image asset: %w", err)
	}

	a.FileName = fileName.String
	a.SourceURL = sourceURL.String
	a.CreatedAt = createdAt
	return &a, nil
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}
