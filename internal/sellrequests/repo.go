package sellrequests

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"watchvault/pkg/models"
)

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, sr *models.SellRequest) (string, error) {
	id := uuid.New().String()

	contact := sr.ContactInfo
	if len(contact) == 0 {
		contact = []byte("{}")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sell_requests (id, brand, model, expected_price, condition, box_and_papers, images_url, contact_info, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'New')
	`, id, sr.Brand, sr.Model, sr.ExpectedPrice, sr.Condition, sr.BoxAndPapers, sr.ImagesURL, string(contact))
	if err != nil {
		return "", fmt.Errorf("failed to create sell request: %w", err)
	}
	return id, nil
}

func (r *Repo) List(ctx context.Context, status string, limit, offset int) ([]models.SellRequest, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, brand, model, expected_price, condition, box_and_papers, images_url, contact_info, status, created_at
		FROM sell_requests
	`
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sell requests: %w", err)
	}
	defer rows.Close()

	var out []models.SellRequest
	for rows.Next() {
		var sr models.SellRequest
		var contact string
		if err := rows.Scan(&sr.ID, &sr.Brand, &sr.Model, &sr.ExpectedPrice, &sr.Condition,
			&sr.BoxAndPapers, &sr.ImagesURL, &contact, &sr.Status, &sr.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sell request: %w", err)
		}
		sr.ContactInfo = []byte(contact)
		out = append(out, sr)
	}
	return out, rows.Err()
}

func (r *Repo) SetStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sell_requests SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update sell request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("sell request not found: %s", id)
	}
	return nil
}
