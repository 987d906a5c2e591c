package expense

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
)

const (
	EventSubmitted = "expense.submitted"
	EventReviewed  = "expense.reviewed"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=expense
type Repository interface {
	CreateExpense(ctx context.Context, e *Expense) error
	GetExpense(ctx context.Context, companyID, id uuid.UUID) (*Expense, error)
	ListExpenses(ctx context.Context, filter ListFilter) ([]*Expense, error)
	UpdateStatus(ctx context.Context, companyID, id uuid.UUID, from, to Status, reviewer uuid.UUID, at time.Time) error
	UpdateReceipt(ctx context.Context, companyID, id uuid.UUID, receiptURL string) error

	BeginImport(ctx context.Context, companyID uuid.UUID, minDate, maxDate time.Time) (ImportTx, error)
}

type ImportTx interface {
	FindDuplicates(ctx context.Context, params []CreateParams) ([]*Expense, error)
	CreateExpenses(ctx context.Context, expenses []*Expense) error
	Commit() error
	Rollback() error
}

// Publisher emits domain events. Delivery failures never fail the operation
// that produced the event.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

type Service struct {
	repo      Repository
	publisher Publisher
	now       func() time.Time
}

func NewService(repo Repository, publisher Publisher) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

type CreateParams struct {
	CompanyID      uuid.UUID
	VehicleID      uuid.UUID
	DriverID       *uuid.UUID
	Amount         decimal.Decimal
	Description    string
	RawDescription string
	PaymentType    finance.PaymentType
	ExpenseType    finance.ExpenseType
	Status         Status
	ReceiptURL     string
	Date           time.Time
}

type ListFilter struct {
	CompanyID       uuid.UUID
	VehicleID       *uuid.UUID
	Status          *Status
	ExcludeRejected bool
	StartDate       *time.Time
	EndDate         *time.Time
}

// Event is the payload published for expense events.
type Event struct {
	ExpenseID uuid.UUID `json:"expense_id"`
	CompanyID uuid.UUID `json:"company_id"`
	VehicleID uuid.UUID `json:"vehicle_id"`
	Status    Status    `json:"status"`
	Amount    string    `json:"amount"`
}

func (p *CreateParams) normalize() error {
	p.Description = strings.TrimSpace(p.Description)

	switch {
	case p.Description == "":
		return fmt.Errorf("%w: description is required", ErrInvalidExpense)
	case len(p.Description) > maxDescriptionLen:
		return fmt.Errorf("%w: description longer than %d characters", ErrInvalidExpense, maxDescriptionLen)
	case p.VehicleID == uuid.Nil:
		return fmt.Errorf("%w: vehicle is required", ErrInvalidExpense)
	}

	if p.PaymentType == "" {
		p.PaymentType = finance.PaymentExpenses
	}

	if !p.PaymentType.Valid() {
		return fmt.Errorf("%w: unknown payment type %q", ErrInvalidExpense, p.PaymentType)
	}

	if !p.ExpenseType.Valid() {
		return fmt.Errorf("%w: unknown expense type %q", ErrInvalidExpense, p.ExpenseType)
	}

	if p.Status == "" {
		p.Status = StatusPending
	}

	return nil
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Expense, error) {
	if err := params.normalize(); err != nil {
		return nil, err
	}

	if params.Date.IsZero() {
		params.Date = s.now()
	}

	e := paramsToExpense(params)
	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	s.publish(ctx, EventSubmitted, e)

	return e, nil
}

func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*Expense, error) {
	return s.repo.GetExpense(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Expense, error) {
	return s.repo.ListExpenses(ctx, filter)
}

// ForVehicle lists the expenses that count towards a vehicle's summary:
// everything that has not been rejected.
func (s *Service) ForVehicle(ctx context.Context, companyID, vehicleID uuid.UUID) ([]*Expense, error) {
	return s.repo.ListExpenses(ctx, ListFilter{
		CompanyID:       companyID,
		VehicleID:       &vehicleID,
		ExcludeRejected: true,
	})
}

// Review moves a pending expense to approved or rejected. Approved and
// rejected are final.
func (s *Service) Review(ctx context.Context, companyID, id uuid.UUID, to Status, reviewer uuid.UUID) (*Expense, error) {
	if !to.Final() {
		return nil, fmt.Errorf("%w: cannot move to %q", ErrInvalidTransition, to)
	}

	e, err := s.repo.GetExpense(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if e.Status != StatusPending {
		return nil, fmt.Errorf("%w: expense is already %s", ErrInvalidTransition, e.Status)
	}

	at := s.now()
	if err := s.repo.UpdateStatus(ctx, companyID, id, StatusPending, to, reviewer, at); err != nil {
		return nil, err
	}

	e.Status = to
	e.ReviewedBy = &reviewer
	e.ReviewedAt = &at

	s.publish(ctx, EventReviewed, e)

	return e, nil
}

func (s *Service) AttachReceipt(ctx context.Context, companyID, id uuid.UUID, receiptURL string) error {
	return s.repo.UpdateReceipt(ctx, companyID, id, receiptURL)
}

type ImportResult struct {
	Imported  []*Expense
	New       []CreateParams
	Conflicts []Conflict
}

type Conflict struct {
	Incoming CreateParams
	Existing *Expense
}

type dupKey struct {
	VehicleID      uuid.UUID
	Date           string
	Amount         string
	RawDescription string
}

func keyOf(vehicleID uuid.UUID, date time.Time, amount decimal.Decimal, raw string) dupKey {
	return dupKey{
		VehicleID:      vehicleID,
		Date:           date.Format(time.DateOnly),
		Amount:         amount.StringFixed(2),
		RawDescription: raw,
	}
}

// ImportBatch stores imported expenses unless some of them already exist. On
// conflicts nothing is written and the caller decides what to confirm.
func (s *Service) ImportBatch(ctx context.Context, companyID uuid.UUID, params []CreateParams) (*ImportResult, error) {
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	for i := range params {
		params[i].CompanyID = companyID
		if err := params[i].normalize(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, companyID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	duplicates, err := itx.FindDuplicates(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}

	lookup := make(map[dupKey]*Expense, len(duplicates))
	for _, d := range duplicates {
		lookup[keyOf(d.VehicleID, d.Date, d.Amount, d.RawDescription)] = d
	}

	var newParams []CreateParams

	var conflicts []Conflict

	for _, p := range params {
		existing, found := lookup[keyOf(p.VehicleID, p.Date, p.Amount, p.RawDescription)]
		if found {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		newParams = append(newParams, p)
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: newParams, Conflicts: conflicts}, nil
	}

	expenses := paramsToExpenses(newParams)
	if err := itx.CreateExpenses(ctx, expenses); err != nil {
		return nil, fmt.Errorf("create expenses: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return &ImportResult{Imported: expenses}, nil
}

// CreateBatch stores the given expenses without duplicate detection.
func (s *Service) CreateBatch(ctx context.Context, companyID uuid.UUID, params []CreateParams) ([]*Expense, error) {
	if len(params) == 0 {
		return nil, nil
	}

	for i := range params {
		params[i].CompanyID = companyID
		if err := params[i].normalize(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, companyID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	expenses := paramsToExpenses(params)
	if err := itx.CreateExpenses(ctx, expenses); err != nil {
		return nil, fmt.Errorf("create expenses: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return expenses, nil
}

func (s *Service) publish(ctx context.Context, event string, e *Expense) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.Publish(ctx, event, Event{
		ExpenseID: e.ID,
		CompanyID: e.CompanyID,
		VehicleID: e.VehicleID,
		Status:    e.Status,
		Amount:    e.Amount.StringFixed(2),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to publish expense event", "event", event, "expense_id", e.ID, "error", err)
	}
}

func dateRange(params []CreateParams) (time.Time, time.Time) {
	minDate := params[0].Date
	maxDate := params[0].Date

	for _, p := range params[1:] {
		if p.Date.Before(minDate) {
			minDate = p.Date
		}

		if p.Date.After(maxDate) {
			maxDate = p.Date
		}
	}

	return minDate, maxDate
}

func paramsToExpense(p CreateParams) *Expense {
	return &Expense{
		CompanyID:      p.CompanyID,
		VehicleID:      p.VehicleID,
		DriverID:       p.DriverID,
		Amount:         p.Amount,
		Description:    p.Description,
		RawDescription: p.RawDescription,
		PaymentType:    p.PaymentType,
		ExpenseType:    p.ExpenseType,
		Status:         p.Status,
		ReceiptURL:     p.ReceiptURL,
		Date:           p.Date,
	}
}

func paramsToExpenses(params []CreateParams) []*Expense {
	expenses := make([]*Expense, len(params))
	for i, p := range params {
		expenses[i] = paramsToExpense(p)
	}

	return expenses
}
