package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/chairmanhq/chairman-server/internal/model"
	"github.com/chairmanhq/chairman-server/internal/utils"
)

// UserRepo persists operator accounts (the salon owner, plus staff if
// the business ever grows past solo mode).
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, businessName string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, business_name) VALUES (?,?,?)",
		email, hash, businessName)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,business_name,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.BusinessName, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,business_name,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.BusinessName, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// UpdateBusinessName changes the salon's display name shown on the
// settings page.
func (r *UserRepo) UpdateBusinessName(ctx context.Context, id uint64, businessName string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET business_name=? WHERE id=?", businessName, id)
	return err
}
