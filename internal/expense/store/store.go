package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanExpense expects the columns of selectExpenseColumns, in order.
func scanExpense(s scanner) (*expense.Expense, error) {
	var (
		e                        expense.Expense
		paymentType, expenseType string
		status                   string
		rawDesc                  sql.NullString
	)

	if err := s.Scan(
		&e.ID, &e.CompanyID, &e.VehicleID, &e.DriverID, &e.Amount, &e.Description, &rawDesc,
		&paymentType, &expenseType, &status, &e.ReceiptURL, &e.ReviewedBy, &e.ReviewedAt,
		&e.Date, &e.CreatedAt,
	); err != nil {
		return nil, err
	}

	e.PaymentType = finance.PaymentType(paymentType)
	e.ExpenseType = finance.ExpenseType(expenseType)
	e.Status = expense.Status(status)
	e.RawDescription = rawDesc.String

	return &e, nil
}

const selectExpenseColumns = `
	id, company_id, vehicle_id, driver_id, amount, description, raw_description,
	payment_type, expense_type, status, receipt_url, reviewed_by, reviewed_at,
	date, created_at
`

const insertExpense = `
	INSERT INTO expenses (company_id, vehicle_id, driver_id, amount, description, raw_description,
		payment_type, expense_type, status, receipt_url, date, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	RETURNING id, created_at
`

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insert(ctx context.Context, q queryRower, e *expense.Expense) error {
	err := q.QueryRowContext(ctx, insertExpense,
		e.CompanyID,
		e.VehicleID,
		e.DriverID,
		e.Amount,
		e.Description,
		e.RawDescription,
		e.PaymentType,
		e.ExpenseType,
		e.Status,
		e.ReceiptURL,
		e.Date,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating expense: %w", err)
	}

	return nil
}

func (s *Store) CreateExpense(ctx context.Context, e *expense.Expense) error {
	return insert(ctx, s.db, e)
}

func (s *Store) GetExpense(ctx context.Context, companyID, id uuid.UUID) (*expense.Expense, error) {
	query := `SELECT ` + selectExpenseColumns + `
		FROM expenses
		WHERE company_id = $1 AND id = $2`

	e, err := scanExpense(s.db.QueryRowContext(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, expense.ErrNotFound
		}

		return nil, fmt.Errorf("getting expense: %w", err)
	}

	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error) {
	query := `SELECT ` + selectExpenseColumns + `
		FROM expenses
		WHERE company_id = $1`

	args := []any{filter.CompanyID}
	argIdx := 2

	if filter.VehicleID != nil {
		query += fmt.Sprintf(" AND vehicle_id = $%d", argIdx)

		args = append(args, *filter.VehicleID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.ExcludeRejected {
		query += fmt.Sprintf(" AND status <> $%d", argIdx)

		args = append(args, expense.StatusRejected)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
	}

	query += " ORDER BY date ASC, created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*expense.Expense

	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}

		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expenses: %w", err)
	}

	return expenses, nil
}

// UpdateStatus only moves expenses that are still in the from state.
func (s *Store) UpdateStatus(ctx context.Context, companyID, id uuid.UUID, from, to expense.Status, reviewer uuid.UUID, at time.Time) error {
	query := `
		UPDATE expenses
		SET status = $1, reviewed_by = $2, reviewed_at = $3
		WHERE company_id = $4 AND id = $5 AND status = $6
	`

	res, err := s.db.ExecContext(ctx, query, to, reviewer, at, companyID, id, from)
	if err != nil {
		return fmt.Errorf("updating expense status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating expense status: %w", err)
	}

	if n == 0 {
		return expense.ErrInvalidTransition
	}

	return nil
}

func (s *Store) UpdateReceipt(ctx context.Context, companyID, id uuid.UUID, receiptURL string) error {
	query := `
		UPDATE expenses
		SET receipt_url = $1
		WHERE company_id = $2 AND id = $3
	`

	res, err := s.db.ExecContext(ctx, query, receiptURL, companyID, id)
	if err != nil {
		return fmt.Errorf("updating receipt: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return expense.ErrNotFound
	}

	return nil
}

func importLockKey(companyID uuid.UUID, minDate, maxDate time.Time) int64 {
	h := fnv.New64a()
	h.Write(companyID[:])
	h.Write([]byte(minDate.Format(time.DateOnly)))
	h.Write([]byte{0})
	h.Write([]byte(maxDate.Format(time.DateOnly)))

	return int64(h.Sum64())
}

type importTx struct {
	tx        *sql.Tx
	companyID uuid.UUID
}

// BeginImport opens a transaction holding an advisory lock on the company and
// date range, so concurrent imports of the same statement serialize.
func (s *Store) BeginImport(ctx context.Context, companyID uuid.UUID, minDate, maxDate time.Time) (expense.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", importLockKey(companyID, minDate, maxDate)); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{tx: dbTx, companyID: companyID}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

func (itx *importTx) FindDuplicates(ctx context.Context, params []expense.CreateParams) ([]*expense.Expense, error) {
	if len(params) == 0 {
		return nil, nil
	}

	type lookupKey struct {
		VehicleID      uuid.UUID
		Date           string
		Amount         string
		RawDescription string
	}

	minDate := params[0].Date
	maxDate := params[0].Date
	keySet := make(map[lookupKey]struct{}, len(params))

	for _, p := range params {
		if p.Date.Before(minDate) {
			minDate = p.Date
		}

		if p.Date.After(maxDate) {
			maxDate = p.Date
		}

		keySet[lookupKey{
			VehicleID:      p.VehicleID,
			Date:           p.Date.Format(time.DateOnly),
			Amount:         p.Amount.StringFixed(2),
			RawDescription: p.RawDescription,
		}] = struct{}{}
	}

	query := `SELECT ` + selectExpenseColumns + `
		FROM expenses
		WHERE company_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`

	rows, err := itx.tx.QueryContext(ctx, query, itx.companyID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}
	defer rows.Close()

	var duplicates []*expense.Expense

	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}

		k := lookupKey{
			VehicleID:      e.VehicleID,
			Date:           e.Date.Format(time.DateOnly),
			Amount:         e.Amount.StringFixed(2),
			RawDescription: e.RawDescription,
		}

		if _, found := keySet[k]; !found {
			continue
		}

		duplicates = append(duplicates, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating duplicate rows: %w", err)
	}

	return duplicates, nil
}

func (itx *importTx) CreateExpenses(ctx context.Context, expenses []*expense.Expense) error {
	for _, e := range expenses {
		if err := insert(ctx, itx.tx, e); err != nil {
			return err
		}
	}

	return nil
}
