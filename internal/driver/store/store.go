package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/driver"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectDriverColumns = `id, company_id, name, email, phone, license_number, active, created_at, updated_at`

func scanDriver(s scanner) (*driver.Driver, error) {
	var d driver.Driver

	if err := s.Scan(&d.ID, &d.CompanyID, &d.Name, &d.Email, &d.Phone, &d.LicenseNumber, &d.Active, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}

	return &d, nil
}

func (s *Store) CreateDriver(ctx context.Context, d *driver.Driver) error {
	query := `
		INSERT INTO drivers (company_id, name, email, phone, license_number, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, d.CompanyID, d.Name, d.Email, d.Phone, d.LicenseNumber, d.Active).
		Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating driver: %w", err)
	}

	return nil
}

func (s *Store) GetDriver(ctx context.Context, companyID, id uuid.UUID) (*driver.Driver, error) {
	query := `SELECT ` + selectDriverColumns + ` FROM drivers WHERE company_id = $1 AND id = $2`

	d, err := scanDriver(s.db.QueryRowContext(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, driver.ErrNotFound
		}

		return nil, fmt.Errorf("getting driver: %w", err)
	}

	return d, nil
}

func (s *Store) ListDrivers(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]*driver.Driver, error) {
	query := `SELECT ` + selectDriverColumns + ` FROM drivers WHERE company_id = $1`
	if activeOnly {
		query += " AND active"
	}

	query += " ORDER BY name ASC"

	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing drivers: %w", err)
	}
	defer rows.Close()

	var drivers []*driver.Driver

	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning driver: %w", err)
		}

		drivers = append(drivers, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating drivers: %w", err)
	}

	return drivers, nil
}

func (s *Store) UpdateDriver(ctx context.Context, d *driver.Driver) error {
	query := `
		UPDATE drivers
		SET name = $1, email = $2, phone = $3, license_number = $4, active = $5, updated_at = NOW()
		WHERE company_id = $6 AND id = $7
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query, d.Name, d.Email, d.Phone, d.LicenseNumber, d.Active, d.CompanyID, d.ID).
		Scan(&d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return driver.ErrNotFound
		}

		return fmt.Errorf("updating driver: %w", err)
	}

	return nil
}
