package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"watchvault/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

type ListQuery struct {
	Visibility string // "" = all
	Status     string
	Brand      string
	Q          string // keyword search in brand/model/reference
	Limit      int
	Offset     int
}

const watchColumns = `
	id, external_id, slug, brand, model, reference, year, condition,
	price, status, visibility, box_and_papers, description, images, tags,
	featured, source_url, created_at, updated_at
`

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Watch, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+watchColumns+`
		FROM watches
		WHERE id = ?
	`, id)
	return scanWatch(row)
}

func (r *Repo) GetBySlug(ctx context.Context, slug string) (*models.Watch, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+watchColumns+`
		FROM watches
		WHERE slug = ?
	`, slug)
	return scanWatch(row)
}

// FindIDByExternalID returns "" when no record carries the external id.
func (r *Repo) FindIDByExternalID(ctx context.Context, externalID string) (string, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id FROM watches WHERE external_id = ?
	`, externalID)

	var id string
	if err := row.Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("find by external id: %w", err)
	}
	return id, nil
}

// SlugInUse reports whether any record other than the one identified by
// exceptExternalID holds the slug.
func (r *Repo) SlugInUse(ctx context.Context, slug, exceptExternalID string) (bool, error) {
	query := `SELECT 1 FROM watches WHERE slug = ?`
	args := []any{slug}
	if exceptExternalID != "" {
		query += ` AND (external_id IS NULL OR external_id != ?)`
		args = append(args, exceptExternalID)
	}

	var one int
	if err := r.DB.QueryRowContext(ctx, query+` LIMIT 1`, args...).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("slug lookup: %w", err)
	}
	return true, nil
}

// Create inserts a new record. Zero-value status/visibility get the
// system defaults: Available, and Private so new items stay in draft
// until reviewed.
func (r *Repo) Create(ctx context.Context, w *models.Watch) (string, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Status == "" {
		w.Status = models.StatusAvailable
	}
	if w.Visibility == "" {
		w.Visibility = models.VisibilityPrivate
	}

	imagesJSON, tagsJSON, err := marshalLists(w)
	if err != nil {
		return "", err
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO watches (
			id, external_id, slug, brand, model, reference, year, condition,
			price, status, visibility, box_and_papers, description, images, tags,
			featured, source_url
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		w.ID, nullString(w.ExternalID), w.Slug, w.Brand, w.Model, w.Reference, w.Year, w.Condition,
		w.Price.String(), w.Status, w.Visibility, w.BoxAndPapers, w.Description, imagesJSON, tagsJSON,
		w.Featured, nullString(w.SourceURL),
	)
	if err != nil {
		return "", fmt.Errorf("create watch: %w", err)
	}
	return w.ID, nil
}

// Replace overwrites the record's imported fields wholesale; it is the
// write half of the importer's upsert. Visibility is only touched when
// w.Visibility is set, since visibility is otherwise admin-owned.
func (r *Repo) Replace(ctx context.Context, id string, w *models.Watch) error {
	imagesJSON, tagsJSON, err := marshalLists(w)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE watches SET
			brand = ?, model = ?, reference = ?, year = ?, condition = ?,
			price = ?, status = ?, box_and_papers = ?, description = ?,
			images = ?, tags = ?, featured = ?, slug = ?, source_url = ?,
			visibility = CASE WHEN ? != '' THEN ? ELSE visibility END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`,
		w.Brand, w.Model, w.Reference, w.Year, w.Condition,
		w.Price.String(), w.Status, w.BoxAndPapers, w.Description,
		imagesJSON, tagsJSON, w.Featured, w.Slug, nullString(w.SourceURL),
		w.Visibility, w.Visibility,
		id,
	)
	if err != nil {
		return fmt.Errorf("replace watch: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace watch rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("replace watch: not found")
	}
	return nil
}

func (r *Repo) UpdateImages(ctx context.Context, id string, images []string) error {
	b, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	if _, err := r.DB.ExecContext(ctx, `
		UPDATE watches SET images = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, string(b), id); err != nil {
		return fmt.Errorf("update images: %w", err)
	}
	return nil
}

func (r *Repo) UpdateNormalized(ctx context.Context, id, brand, model, condition string, tags []string) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	if _, err := r.DB.ExecContext(ctx, `
		UPDATE watches SET brand = ?, model = ?, condition = ?, tags = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, brand, model, condition, string(tagsJSON), id); err != nil {
		return fmt.Errorf("update normalized fields: %w", err)
	}
	return nil
}

func (r *Repo) SetStatus(ctx context.Context, id, status string) error {
	return r.setColumn(ctx, id, "status", status)
}

func (r *Repo) SetVisibility(ctx context.Context, id, visibility string) error {
	return r.setColumn(ctx, id, "visibility", visibility)
}

func (r *Repo) setColumn(ctx context.Context, id, column, value string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE watches SET `+column+` = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, value, id)
	if err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set %s rows: %w", column, err)
	}
	if affected == 0 {
		return fmt.Errorf("set %s: watch not found", column)
	}
	return nil
}

func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	sqlStr, args := buildListSQL(q, true)
	var total int
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.Watch, error) {
	sqlStr, args := buildListSQL(q, false)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.Watch, 0, q.Limit)
	for rows.Next() {
		w, err := scanWatchRow(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// All streams every record ordered newest first. Maintenance passes
// (backfills) use this instead of the paged List.
func (r *Repo) All(ctx context.Context) ([]models.Watch, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+watchColumns+`
		FROM watches
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("all query: %w", err)
	}
	defer rows.Close()

	var out []models.Watch
	for rows.Next() {
		w, err := scanWatchRow(rows)
		if err != nil {
			return nil, fmt.Errorf("all scan: %w", err)
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// buildListSQL builds either COUNT(*) or the SELECT list. Featured
// items sort first, then newest, matching the storefront ordering.
func buildListSQL(q ListQuery, countOnly bool) (string, []any) {
	baseSelect := `SELECT ` + watchColumns + ` FROM watches`
	if countOnly {
		baseSelect = `SELECT COUNT(*) FROM watches`
	}

	var where []string
	var args []any

	if q.Visibility != "" {
		where = append(where, "visibility = ?")
		args = append(args, q.Visibility)
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	if q.Brand != "" {
		where = append(where, "LOWER(brand) = ?")
		args = append(args, strings.ToLower(q.Brand))
	}
	if strings.TrimSpace(q.Q) != "" {
		where = append(where, "(LOWER(brand) LIKE ? OR LOWER(model) LIKE ? OR LOWER(reference) LIKE ?)")
		kw := "%" + strings.ToLower(strings.TrimSpace(q.Q)) + "%"
		args = append(args, kw, kw, kw)
	}

	sqlStr := baseSelect
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	if !countOnly {
		sqlStr += " ORDER BY featured DESC, created_at DESC"
		sqlStr += " LIMIT ? OFFSET ?"
		limit := q.Limit
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		args = append(args, limit, offset)
	}

	return sqlStr, args
}

// UniqueViolationField extracts the conflicting column from a sqlite
// unique-constraint error, or "" when err is something else. Used to
// surface "duplicate value for <field>" instead of a raw driver error.
func UniqueViolationField(err error) string {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return ""
	}
	// Message shape: "UNIQUE constraint failed: watches.slug"
	msg := sqliteErr.Error()
	idx := strings.LastIndex(msg, ".")
	if idx < 0 || idx == len(msg)-1 {
		return "unique field"
	}
	return strings.TrimSpace(msg[idx+1:])
}

type scannable interface {
	Scan(dest ...any) error
}

func scanWatch(row *sql.Row) (*models.Watch, error) {
	w, err := scanWatchRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan watch: %w", err)
	}
	return w, nil
}

func scanWatchRow(row scannable) (*models.Watch, error) {
	var (
		w          models.Watch
		externalID sql.NullString
		price      string
		imagesJSON string
		tagsJSON   string
		sourceURL  sql.NullString
		createdAt  time.Time
		updatedAt  time.Time
	)

	if err := row.Scan(
		&w.ID, &externalID, &w.Slug, &w.Brand, &w.Model, &w.Reference, &w.Year, &w.Condition,
		&price, &w.Status, &w.Visibility, &w.BoxAndPapers, &w.Description, &imagesJSON, &tagsJSON,
		&w.Featured, &sourceURL, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	w.ExternalID = externalID.String
	w.SourceURL = sourceURL.String
	w.CreatedAt = createdAt
	w.UpdatedAt = updatedAt

	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse stored price %q: %w", price, err)
	}
	w.Price = d

	if err := json.Unmarshal([]byte(imagesJSON), &w.Images); err != nil {
		return nil, fmt.Errorf("parse stored images %q: %w", imagesJSON, err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &w.Tags); err != nil {
		return nil, fmt.Errorf("parse stored tags %q: %w", tagsJSON, err)
	}
	return &w, nil
}

func marshalLists(w *models.Watch) (imagesJSON, tagsJSON string, err error) {
	images := w.Images
	if images == nil {
		images = []string{}
	}
	tags := w.Tags
	if tags == nil {
		tags = []string{}
	}

	ib, err := json.Marshal(images)
	if err != nil {
		return "", "", fmt.Errorf("marshal images: %w", err)
	}
	tb, err := json.Marshal(tags)
	if err != nil {
		return "", "", fmt.Errorf("marshal tags: %w", err)
	}
	return string(ib), string(tb), nil
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}
