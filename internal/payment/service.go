package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=payment
type Repository interface {
	CreatePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, companyID, id uuid.UUID) (*Payment, error)
	ListPayments(ctx context.Context, filter ListFilter) ([]*Payment, error)
	UpdatePayment(ctx context.Context, p *Payment) error
	MarkOverdue(ctx context.Context, weekStartBefore time.Time) (int64, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

type CreateParams struct {
	CompanyID uuid.UUID
	VehicleID uuid.UUID
	DriverID  *uuid.UUID
	WeekStart time.Time
	AmountDue decimal.Decimal
	Type      Type
}

type ListFilter struct {
	CompanyID uuid.UUID
	VehicleID *uuid.UUID
	DriverID  *uuid.UUID
	Status    *Status
	From      *time.Time
	To        *time.Time
}

type CollectParams struct {
	Amount         decimal.Decimal
	PaidAt         *time.Time
	CollectionDate *time.Time
}

func (s *Service) CreateDue(ctx context.Context, params CreateParams) (*Payment, error) {
	switch {
	case params.VehicleID == uuid.Nil:
		return nil, fmt.Errorf("%w: vehicle is required", ErrInvalidPayment)
	case params.WeekStart.IsZero():
		return nil, fmt.Errorf("%w: week start is required", ErrInvalidPayment)
	case !params.AmountDue.IsPositive():
		return nil, fmt.Errorf("%w: amount due must be positive", ErrInvalidPayment)
	}

	if params.Type == "" {
		params.Type = TypeReceived
	}

	p := &Payment{
		CompanyID:  params.CompanyID,
		VehicleID:  params.VehicleID,
		DriverID:   params.DriverID,
		WeekStart:  params.WeekStart,
		AmountDue:  params.AmountDue,
		AmountPaid: decimal.Zero,
		Status:     StatusDue,
		Type:       params.Type,
	}

	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*Payment, error) {
	return s.repo.GetPayment(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Payment, error) {
	return s.repo.ListPayments(ctx, filter)
}

func (s *Service) ForVehicle(ctx context.Context, companyID, vehicleID uuid.UUID) ([]*Payment, error) {
	return s.repo.ListPayments(ctx, ListFilter{CompanyID: companyID, VehicleID: &vehicleID})
}

// Collect adds a partial or full collection to a payment. The payment becomes
// paid once the accumulated amount covers the amount due; PaidAt is only set
// at that point unless the caller supplies it.
func (s *Service) Collect(ctx context.Context, companyID, id uuid.UUID, params CollectParams) (*Payment, error) {
	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: collected amount must be positive", ErrInvalidPayment)
	}

	p, err := s.repo.GetPayment(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if p.Status == StatusPaid {
		return nil, ErrAlreadyPaid
	}

	p.AmountPaid = p.AmountPaid.Add(params.Amount)

	if params.CollectionDate != nil {
		p.CollectionDate = params.CollectionDate
	}

	if params.PaidAt != nil {
		p.PaidAt = params.PaidAt
	}

	if p.AmountPaid.GreaterThanOrEqual(p.AmountDue) {
		p.Status = StatusPaid
		if p.PaidAt == nil && p.CollectionDate == nil {
			p.PaidAt = new(s.now().UTC())
		}
	}

	if err := s.repo.UpdatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("updating payment: %w", err)
	}

	return p, nil
}

// MarkOverdue flags every due payment, across all companies, whose week ended
// before now.
func (s *Service) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.MarkOverdue(ctx, now.Add(-Week))
}

// MonthlyRevenue returns the rent collected for the month containing month.
func (s *Service) MonthlyRevenue(ctx context.Context, companyID uuid.UUID, month time.Time, vehicleID *uuid.UUID) (decimal.Decimal, error) {
	paid := StatusPaid

	payments, err := s.repo.ListPayments(ctx, ListFilter{
		CompanyID: companyID,
		VehicleID: vehicleID,
		Status:    &paid,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("listing payments: %w", err)
	}

	return finance.MonthlyRevenue(Records(payments), month), nil
}
