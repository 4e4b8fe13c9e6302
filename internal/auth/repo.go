package auth

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AdminUser struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, a AdminUser) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO admin_users (id, email, password_hash)
		VALUES (?, ?, ?)
	`, a.ID, a.Email, a.PasswordHash)

	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*AdminUser, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM admin_users
		WHERE LOWER(email) = ?
	`, email)

	var a AdminUser
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get by email: %w", err)
	}
	return &a, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*AdminUser, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM admin_users
		WHERE id = ?
	`, id)

	var a AdminUser
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}
	return &a, nil
}

func (r *Repo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE admin_users
		SET password_hash = ?
		WHERE id = ?
	`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update password: admin not found")
	}
	return nil
}

// Seed creates the bootstrap admin account on first run. A no-op when
// the email already exists or when no seed credentials are configured.
func (r *Repo) Seed(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil
	}

	existing, err := r.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	if err := r.Create(ctx, AdminUser{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
	}); err != nil {
		return err
	}
	log.Printf("[auth] seeded admin account %s", email)
	return nil
}
