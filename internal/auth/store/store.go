package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateCompany(ctx context.Context, c *auth.Company) error {
	query := `INSERT INTO companies (name) VALUES ($1) RETURNING id, created_at`

	if err := s.db.QueryRowContext(ctx, query, c.Name).Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("creating company: %w", err)
	}

	return nil
}

func (s *Store) GetCompanyByName(ctx context.Context, name string) (*auth.Company, error) {
	query := `SELECT id, name, created_at FROM companies WHERE name = $1`

	var c auth.Company
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}

		return nil, fmt.Errorf("getting company: %w", err)
	}

	return &c, nil
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	query := `
		INSERT INTO users (company_id, email, name, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, u.CompanyID, u.Email, u.Name, u.Role, u.PasswordHash).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	query := `
		SELECT id, company_id, email, name, role, password_hash, created_at
		FROM users
		WHERE email = $1
	`

	var (
		u    auth.User
		role string
	)

	err := s.db.QueryRowContext(ctx, query, email).
		Scan(&u.ID, &u.CompanyID, &u.Email, &u.Name, &role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}

		return nil, fmt.Errorf("getting user: %w", err)
	}

	u.Role = auth.Role(role)

	return &u, nil
}
