package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
)

type Store struct {
	db    *sql.DB
	types *pgtype.Map
}

func New(db *sql.DB) *Store {
	return &Store{db: db, types: pgtype.NewMap()}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectVehicleColumns = `
	id, company_id, registration, make, model, year, driver_id, weekly_rent,
	image_urls, loan, created_at, updated_at, deleted_at
`

func (s *Store) scanVehicle(sc scanner) (*vehicle.Vehicle, error) {
	var (
		v    vehicle.Vehicle
		loan []byte
	)

	if err := sc.Scan(
		&v.ID, &v.CompanyID, &v.Registration, &v.Make, &v.Model, &v.Year, &v.DriverID, &v.WeeklyRent,
		s.types.SQLScanner(&v.ImageURLs), &loan, &v.CreatedAt, &v.UpdatedAt, &v.DeletedAt,
	); err != nil {
		return nil, err
	}

	if len(loan) > 0 {
		var details finance.LoanDetails
		if err := json.Unmarshal(loan, &details); err != nil {
			return nil, fmt.Errorf("decoding loan of vehicle %s: %w", v.ID, err)
		}

		v.Loan = &details
	}

	return &v, nil
}

func encodeLoan(loan *finance.LoanDetails) (any, error) {
	if loan == nil {
		return nil, nil
	}

	b, err := json.Marshal(loan)
	if err != nil {
		return nil, fmt.Errorf("encoding loan: %w", err)
	}

	return string(b), nil
}

func imageURLs(urls []string) []string {
	if urls == nil {
		return []string{}
	}

	return urls
}

func (s *Store) CreateVehicle(ctx context.Context, v *vehicle.Vehicle) error {
	loan, err := encodeLoan(v.Loan)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO vehicles (company_id, registration, make, model, year, driver_id, weekly_rent, image_urls, loan)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err = s.db.QueryRowContext(ctx, query,
		v.CompanyID,
		v.Registration,
		v.Make,
		v.Model,
		v.Year,
		v.DriverID,
		v.WeeklyRent,
		imageURLs(v.ImageURLs),
		loan,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating vehicle: %w", err)
	}

	return nil
}

func (s *Store) GetVehicle(ctx context.Context, companyID, id uuid.UUID) (*vehicle.Vehicle, error) {
	query := `SELECT ` + selectVehicleColumns + `
		FROM vehicles
		WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`

	v, err := s.scanVehicle(s.db.QueryRowContext(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vehicle.ErrNotFound
		}

		return nil, fmt.Errorf("getting vehicle: %w", err)
	}

	return v, nil
}

func (s *Store) ListVehicles(ctx context.Context, companyID uuid.UUID) ([]*vehicle.Vehicle, error) {
	query := `SELECT ` + selectVehicleColumns + `
		FROM vehicles
		WHERE company_id = $1 AND deleted_at IS NULL
		ORDER BY registration ASC`

	return s.list(ctx, query, companyID)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*vehicle.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*vehicle.Vehicle

	for rows.Next() {
		v, err := s.scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning vehicle: %w", err)
		}

		vehicles = append(vehicles, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vehicles: %w", err)
	}

	return vehicles, nil
}

// ListFinanced returns every live vehicle with a loan, across companies.
func (s *Store) ListFinanced(ctx context.Context) ([]*vehicle.Vehicle, error) {
	query := `SELECT ` + selectVehicleColumns + `
		FROM vehicles
		WHERE loan IS NOT NULL AND deleted_at IS NULL
		ORDER BY company_id, registration`

	return s.list(ctx, query)
}

func (s *Store) UpdateVehicle(ctx context.Context, v *vehicle.Vehicle) error {
	query := `
		UPDATE vehicles
		SET registration = $1, make = $2, model = $3, year = $4, driver_id = $5,
			weekly_rent = $6, image_urls = $7, updated_at = NOW()
		WHERE company_id = $8 AND id = $9 AND deleted_at IS NULL
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		v.Registration, v.Make, v.Model, v.Year, v.DriverID, v.WeeklyRent, imageURLs(v.ImageURLs),
		v.CompanyID, v.ID,
	).Scan(&v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vehicle.ErrNotFound
		}

		return fmt.Errorf("updating vehicle: %w", err)
	}

	return nil
}

func (s *Store) UpdateLoan(ctx context.Context, companyID, id uuid.UUID, loan *finance.LoanDetails) error {
	encoded, err := encodeLoan(loan)
	if err != nil {
		return err
	}

	query := `
		UPDATE vehicles
		SET loan = $1, updated_at = NOW()
		WHERE company_id = $2 AND id = $3 AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, encoded, companyID, id)
	if err != nil {
		return fmt.Errorf("updating loan: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return vehicle.ErrNotFound
	}

	return nil
}

func (s *Store) DeleteVehicle(ctx context.Context, companyID, id uuid.UUID) error {
	query := `UPDATE vehicles SET deleted_at = NOW() WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`

	res, err := s.db.ExecContext(ctx, query, companyID, id)
	if err != nil {
		return fmt.Errorf("deleting vehicle: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return vehicle.ErrNotFound
	}

	return nil
}
