package vehicle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/payment"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=vehicle
type Repository interface {
	CreateVehicle(ctx context.Context, v *Vehicle) error
	GetVehicle(ctx context.Context, companyID, id uuid.UUID) (*Vehicle, error)
	ListVehicles(ctx context.Context, companyID uuid.UUID) ([]*Vehicle, error)
	ListFinanced(ctx context.Context) ([]*Vehicle, error)
	UpdateVehicle(ctx context.Context, v *Vehicle) error
	UpdateLoan(ctx context.Context, companyID, id uuid.UUID, loan *finance.LoanDetails) error
	DeleteVehicle(ctx context.Context, companyID, id uuid.UUID) error
}

// Expenses is the part of the expense service vehicles depend on.
type Expenses interface {
	Create(ctx context.Context, params expense.CreateParams) (*expense.Expense, error)
	ForVehicle(ctx context.Context, companyID, vehicleID uuid.UUID) ([]*expense.Expense, error)
}

type Payments interface {
	ForVehicle(ctx context.Context, companyID, vehicleID uuid.UUID) ([]*payment.Payment, error)
}

// RuleSource provides a company's learned category rules.
type RuleSource interface {
	Rules(ctx context.Context, companyID uuid.UUID) (finance.Rules, error)
}

type Service struct {
	repo       Repository
	expenses   Expenses
	payments   Payments
	rules      RuleSource
	aggregator *finance.Aggregator
	now        func() time.Time
}

func NewService(repo Repository, expenses Expenses, payments Payments, rules RuleSource, aggregator *finance.Aggregator) *Service {
	return &Service{
		repo:       repo,
		expenses:   expenses,
		payments:   payments,
		rules:      rules,
		aggregator: aggregator,
		now:        time.Now,
	}
}

type Params struct {
	Registration string
	Make         string
	Model        string
	Year         int
	DriverID     *uuid.UUID
	WeeklyRent   decimal.Decimal
	ImageURLs    []string
}

func (p *Params) normalize() error {
	p.Registration = strings.ToUpper(strings.TrimSpace(p.Registration))

	switch {
	case p.Registration == "":
		return fmt.Errorf("%w: registration is required", ErrInvalidVehicle)
	case p.WeeklyRent.IsNegative():
		return fmt.Errorf("%w: weekly rent is negative", ErrInvalidVehicle)
	case p.Year < 0:
		return fmt.Errorf("%w: year is negative", ErrInvalidVehicle)
	}

	return nil
}

func (s *Service) Create(ctx context.Context, companyID uuid.UUID, params Params, loan *finance.LoanDetails) (*Vehicle, error) {
	if err := params.normalize(); err != nil {
		return nil, err
	}

	v := &Vehicle{
		CompanyID:    companyID,
		Registration: params.Registration,
		Make:         strings.TrimSpace(params.Make),
		Model:        strings.TrimSpace(params.Model),
		Year:         params.Year,
		DriverID:     params.DriverID,
		WeeklyRent:   params.WeeklyRent,
		ImageURLs:    params.ImageURLs,
	}

	if loan != nil {
		prepared, err := prepareLoan(*loan)
		if err != nil {
			return nil, err
		}

		v.Loan = prepared
	}

	if err := s.repo.CreateVehicle(ctx, v); err != nil {
		return nil, err
	}

	return v, nil
}

func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*Vehicle, error) {
	return s.repo.GetVehicle(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID uuid.UUID) ([]*Vehicle, error) {
	return s.repo.ListVehicles(ctx, companyID)
}

// Financed lists the vehicles of every company that carry a loan.
func (s *Service) Financed(ctx context.Context) ([]*Vehicle, error) {
	return s.repo.ListFinanced(ctx)
}

func (s *Service) Update(ctx context.Context, companyID, id uuid.UUID, params Params) (*Vehicle, error) {
	if err := params.normalize(); err != nil {
		return nil, err
	}

	v, err := s.repo.GetVehicle(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	v.Registration = params.Registration
	v.Make = strings.TrimSpace(params.Make)
	v.Model = strings.TrimSpace(params.Model)
	v.Year = params.Year
	v.DriverID = params.DriverID
	v.WeeklyRent = params.WeeklyRent

	if params.ImageURLs != nil {
		v.ImageURLs = params.ImageURLs
	}

	if err := s.repo.UpdateVehicle(ctx, v); err != nil {
		return nil, fmt.Errorf("updating vehicle: %w", err)
	}

	return v, nil
}

// AddImage appends an uploaded photo to the vehicle.
func (s *Service) AddImage(ctx context.Context, companyID, id uuid.UUID, url string) (*Vehicle, error) {
	v, err := s.repo.GetVehicle(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	v.ImageURLs = append(v.ImageURLs, url)

	if err := s.repo.UpdateVehicle(ctx, v); err != nil {
		return nil, fmt.Errorf("updating vehicle: %w", err)
	}

	return v, nil
}

func (s *Service) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return s.repo.DeleteVehicle(ctx, companyID, id)
}

// prepareLoan fills in the EMI when it is missing, builds the schedule and
// sets the outstanding balance from the paid entries.
func prepareLoan(loan finance.LoanDetails) (*finance.LoanDetails, error) {
	if loan.EMIPerMonth.IsZero() {
		loan.EMIPerMonth = finance.ComputeEMI(loan.TotalLoan, loan.InterestRate, loan.TotalInstallments)
	}

	schedule, err := finance.BuildAmortizationSchedule(loan)
	if err != nil {
		return nil, err
	}

	loan.AmortizationSchedule = finance.MergePaymentState(schedule, loan.AmortizationSchedule)
	loan.OutstandingLoan = finance.OutstandingAfterPaid(loan.TotalLoan, loan.AmortizationSchedule)

	return &loan, nil
}

// SetLoan replaces the financing terms of a vehicle. Paid state of months that
// still exist in the new schedule is kept.
func (s *Service) SetLoan(ctx context.Context, companyID, id uuid.UUID, loan finance.LoanDetails) (*Vehicle, error) {
	v, err := s.repo.GetVehicle(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if v.Loan != nil && loan.AmortizationSchedule == nil {
		loan.AmortizationSchedule = v.Loan.AmortizationSchedule
	}

	prepared, err := prepareLoan(loan)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLoan(ctx, companyID, id, prepared); err != nil {
		return nil, fmt.Errorf("updating loan: %w", err)
	}

	v.Loan = prepared

	return v, nil
}

// Schedule returns the vehicle's amortization schedule rebuilt from its loan
// terms with the stored paid state applied.
func (s *Service) Schedule(ctx context.Context, companyID, id uuid.UUID) ([]finance.ScheduleEntry, error) {
	v, err := s.repo.GetVehicle(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if v.Loan == nil {
		return nil, ErrNoLoan
	}

	schedule, err := finance.BuildAmortizationSchedule(*v.Loan)
	if err != nil {
		return nil, err
	}

	return finance.MergePaymentState(schedule, v.Loan.AmortizationSchedule), nil
}

// PayInstallment marks a month as paid and books the installment as an
// approved EMI expense on the vehicle. The paid mark is rolled back when the
// expense cannot be booked.
func (s *Service) PayInstallment(ctx context.Context, companyID, id uuid.UUID, month int, at time.Time) (*finance.ScheduleEntry, error) {
	v, err := s.loanVehicle(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	e := v.entry(month)
	if e == nil {
		return nil, fmt.Errorf("%w: month %d not in schedule", ErrInstallmentState, month)
	}

	if e.IsPaid {
		return nil, fmt.Errorf("%w: month %d already paid", ErrInstallmentState, month)
	}

	prev := *e

	finance.MarkPaid(e, at)

	if err := s.saveLoan(ctx, companyID, id, v.Loan); err != nil {
		return nil, err
	}

	amount := e.Interest.Add(e.Principal)
	if err := s.bookInstallment(ctx, companyID, v, amount, fmt.Sprintf("EMI installment %d", month), at); err != nil {
		s.restoreEntry(ctx, companyID, v, e, prev)
		return nil, err
	}

	return e, nil
}

// UndoInstallment reverts a paid month while its edit window is open and
// books a negative EMI correction for the installment paid earlier.
func (s *Service) UndoInstallment(ctx context.Context, companyID, id uuid.UUID, month int) (*finance.ScheduleEntry, error) {
	v, err := s.loanVehicle(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	e := v.entry(month)
	if e == nil || !e.IsPaid {
		return nil, fmt.Errorf("%w: month %d is not paid", ErrInstallmentState, month)
	}

	now := s.now()
	if !finance.CanEdit(*e, now) {
		return nil, ErrInstallmentLocked
	}

	prev := *e

	finance.MarkUnpaid(e)

	if err := s.saveLoan(ctx, companyID, id, v.Loan); err != nil {
		return nil, err
	}

	amount := prev.Interest.Add(prev.Principal).Neg()
	if err := s.bookInstallment(ctx, companyID, v, amount, fmt.Sprintf("EMI installment %d reverted", month), now); err != nil {
		s.restoreEntry(ctx, companyID, v, e, prev)
		return nil, err
	}

	return e, nil
}

func (s *Service) saveLoan(ctx context.Context, companyID, id uuid.UUID, loan *finance.LoanDetails) error {
	loan.OutstandingLoan = finance.OutstandingAfterPaid(loan.TotalLoan, loan.AmortizationSchedule)

	if err := s.repo.UpdateLoan(ctx, companyID, id, loan); err != nil {
		return fmt.Errorf("updating loan: %w", err)
	}

	return nil
}

func (s *Service) bookInstallment(ctx context.Context, companyID uuid.UUID, v *Vehicle, amount decimal.Decimal, description string, at time.Time) error {
	_, err := s.expenses.Create(ctx, expense.CreateParams{
		CompanyID:   companyID,
		VehicleID:   v.ID,
		DriverID:    v.DriverID,
		Amount:      amount,
		Description: description,
		PaymentType: finance.PaymentEMI,
		Status:      expense.StatusApproved,
		Date:        at,
	})
	if err != nil {
		return fmt.Errorf("recording installment expense: %w", err)
	}

	return nil
}

// restoreEntry puts the entry back to prev after a failed booking.
func (s *Service) restoreEntry(ctx context.Context, companyID uuid.UUID, v *Vehicle, e *finance.ScheduleEntry, prev finance.ScheduleEntry) {
	*e = prev

	if err := s.saveLoan(ctx, companyID, v.ID, v.Loan); err != nil {
		slog.ErrorContext(ctx, "failed to restore installment", "vehicle_id", v.ID, "month", e.Month, "error", err)
	}
}

func (s *Service) loanVehicle(ctx context.Context, companyID, id uuid.UUID) (*Vehicle, error) {
	v, err := s.repo.GetVehicle(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if v.Loan == nil {
		return nil, ErrNoLoan
	}

	if len(v.Loan.AmortizationSchedule) == 0 {
		schedule, err := finance.BuildAmortizationSchedule(*v.Loan)
		if err != nil {
			return nil, err
		}

		v.Loan.AmortizationSchedule = schedule
	}

	return v, nil
}

// Summary recomputes the vehicle's financial summary from its full history.
func (s *Service) Summary(ctx context.Context, companyID, id uuid.UUID, ref time.Time) (*finance.Summary, error) {
	var (
		v        *Vehicle
		expenses []*expense.Expense
		payments []*payment.Payment
		learned  finance.Rules
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		v, err = s.repo.GetVehicle(gctx, companyID, id)

		return err
	})

	g.Go(func() error {
		var err error
		expenses, err = s.expenses.ForVehicle(gctx, companyID, id)

		return err
	})

	g.Go(func() error {
		var err error
		payments, err = s.payments.ForVehicle(gctx, companyID, id)

		return err
	})

	if s.rules != nil {
		g.Go(func() error {
			var err error
			learned, err = s.rules.Rules(gctx, companyID)

			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary, err := s.aggregator.WithRules(learned).Summarize(finance.SummaryInput{
		Expenses:      expense.Records(expenses),
		Payments:      payment.Records(payments),
		Loan:          v.Loan,
		ReferenceDate: ref,
	})
	if err != nil {
		return nil, fmt.Errorf("summarizing vehicle %s: %w", id, err)
	}

	return summary, nil
}
