package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/payment"
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

const selectPaymentColumns = `
	id, company_id, vehicle_id, driver_id, week_start, amount_due, amount_paid,
	status, type, paid_at, collection_date, created_at
`

func scanPayment(s scanner) (*payment.Payment, error) {
	var (
		p            payment.Payment
		status, kind string
	)

	if err := s.Scan(
		&p.ID, &p.CompanyID, &p.VehicleID, &p.DriverID, &p.WeekStart, &p.AmountDue, &p.AmountPaid,
		&status, &kind, &p.PaidAt, &p.CollectionDate, &p.CreatedAt,
	); err != nil {
		return nil, err
	}

	p.Status = payment.Status(status)
	p.Type = payment.Type(kind)

	return &p, nil
}

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (company_id, vehicle_id, driver_id, week_start, amount_due, amount_paid, status, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		p.CompanyID,
		p.VehicleID,
		p.DriverID,
		p.WeekStart,
		p.AmountDue,
		p.AmountPaid,
		p.Status,
		p.Type,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating payment: %w", err)
	}

	return nil
}

func (s *Store) GetPayment(ctx context.Context, companyID, id uuid.UUID) (*payment.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + ` FROM payments WHERE company_id = $1 AND id = $2`

	p, err := scanPayment(s.db.QueryRowContext(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrNotFound
		}

		return nil, fmt.Errorf("getting payment: %w", err)
	}

	return p, nil
}

func (s *Store) ListPayments(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + ` FROM payments WHERE company_id = $1`
	args := []any{filter.CompanyID}

	add := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND "+clause, len(args))
	}

	if filter.VehicleID != nil {
		add("vehicle_id = $%d", *filter.VehicleID)
	}

	if filter.DriverID != nil {
		add("driver_id = $%d", *filter.DriverID)
	}

	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}

	if filter.From != nil {
		add("week_start >= $%d", *filter.From)
	}

	if filter.To != nil {
		add("week_start <= $%d", *filter.To)
	}

	query += " ORDER BY week_start ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}

		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payments: %w", err)
	}

	return payments, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p *payment.Payment) error {
	query := `
		UPDATE payments
		SET amount_paid = $1, status = $2, paid_at = $3, collection_date = $4
		WHERE company_id = $5 AND id = $6
	`

	res, err := s.db.ExecContext(ctx, query, p.AmountPaid, p.Status, p.PaidAt, p.CollectionDate, p.CompanyID, p.ID)
	if err != nil {
		return fmt.Errorf("updating payment: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return payment.ErrNotFound
	}

	return nil
}

func (s *Store) MarkOverdue(ctx context.Context, weekStartBefore time.Time) (int64, error) {
	query := `UPDATE payments SET status = $1 WHERE status = $2 AND week_start < $3`

	res, err := s.db.ExecContext(ctx, query, payment.StatusOverdue, payment.StatusDue, weekStartBefore)
	if err != nil {
		return 0, fmt.Errorf("marking overdue payments: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("marking overdue payments: %w", err)
	}

	return n, nil
}
