package vehicle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/payment"
	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
)

var (
	company = uuid.New()
	carID   = uuid.New()
)

type mocks struct {
	repo     *vehicle.MockRepository
	expenses *vehicle.MockExpenses
	payments *vehicle.MockPayments
	rules    *vehicle.MockRuleSource
}

func newService(t *testing.T) (*vehicle.Service, mocks) {
	ctrl := gomock.NewController(t)
	m := mocks{
		repo:     vehicle.NewMockRepository(ctrl),
		expenses: vehicle.NewMockExpenses(ctrl),
		payments: vehicle.NewMockPayments(ctrl),
		rules:    vehicle.NewMockRuleSource(ctrl),
	}

	return vehicle.NewService(m.repo, m.expenses, m.payments, m.rules, finance.NewAggregator(nil)), m
}

func loanTerms() finance.LoanDetails {
	return finance.LoanDetails{
		TotalLoan:         decimal.NewFromInt(120000),
		EMIPerMonth:       decimal.NewFromInt(11000),
		InterestRate:      decimal.RequireFromString("0.10"),
		TotalInstallments: 12,
		StartDate:         time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func withLoan(t *testing.T) *vehicle.Vehicle {
	t.Helper()

	loan := loanTerms()
	schedule, err := finance.BuildAmortizationSchedule(loan)
	require.NoError(t, err)

	loan.AmortizationSchedule = schedule
	loan.OutstandingLoan = loan.TotalLoan

	return &vehicle.Vehicle{ID: carID, CompanyID: company, Registration: "KA01AB1234", Loan: &loan}
}

func TestService_Create(t *testing.T) {
	type testCase struct {
		name    string
		params  vehicle.Params
		loan    *finance.LoanDetails
		expect  bool
		check   func(t *testing.T, v *vehicle.Vehicle)
		wantErr error
	}

	noEMI := loanTerms()
	noEMI.EMIPerMonth = decimal.Zero

	badLoan := loanTerms()
	badLoan.TotalInstallments = 0

	tests := []testCase{
		{
			name:   "Without Loan",
			params: vehicle.Params{Registration: " ka01ab1234 ", WeeklyRent: decimal.NewFromInt(3500)},
			expect: true,
			check: func(t *testing.T, v *vehicle.Vehicle) {
				assert.Equal(t, "KA01AB1234", v.Registration)
				assert.Nil(t, v.Loan)
			},
		},
		{
			name:   "Loan Without EMI",
			params: vehicle.Params{Registration: "KA01AB1234"},
			loan:   &noEMI,
			expect: true,
			check: func(t *testing.T, v *vehicle.Vehicle) {
				require.NotNil(t, v.Loan)
				assert.Equal(t, "10549.91", v.Loan.EMIPerMonth.StringFixed(2))
				assert.Len(t, v.Loan.AmortizationSchedule, 12)
				assert.True(t, v.Loan.OutstandingLoan.Equal(decimal.NewFromInt(120000)))
			},
		},
		{
			name:    "Missing Registration",
			params:  vehicle.Params{Registration: "  "},
			wantErr: vehicle.ErrInvalidVehicle,
		},
		{
			name:    "Invalid Loan",
			params:  vehicle.Params{Registration: "KA01AB1234"},
			loan:    &badLoan,
			wantErr: finance.ErrInvalidLoan,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)

			if tt.expect {
				m.repo.EXPECT().
					CreateVehicle(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, v *vehicle.Vehicle) error {
						v.ID = uuid.New()
						return nil
					})
			}

			got, err := svc.Create(context.Background(), company, tt.params, tt.loan)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestService_SetLoan_KeepsPaidState(t *testing.T) {
	svc, m := newService(t)

	v := withLoan(t)
	finance.MarkPaid(&v.Loan.AmortizationSchedule[0], time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC))

	m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(v, nil)
	m.repo.EXPECT().UpdateLoan(gomock.Any(), company, carID, gomock.Any()).Return(nil)

	terms := loanTerms()
	terms.TotalInstallments = 24
	terms.EMIPerMonth = decimal.NewFromInt(6000)

	got, err := svc.SetLoan(context.Background(), company, carID, terms)
	require.NoError(t, err)

	assert.Len(t, got.Loan.AmortizationSchedule, 24)
	assert.True(t, got.Loan.AmortizationSchedule[0].IsPaid)
	assert.False(t, got.Loan.AmortizationSchedule[1].IsPaid)
	assert.Equal(t, "115000.00", got.Loan.OutstandingLoan.StringFixed(2))
}

func TestService_Schedule(t *testing.T) {
	t.Run("No Loan", func(t *testing.T) {
		svc, m := newService(t)
		m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(&vehicle.Vehicle{ID: carID}, nil)

		_, err := svc.Schedule(context.Background(), company, carID)
		assert.ErrorIs(t, err, vehicle.ErrNoLoan)
	})

	t.Run("Rebuilt", func(t *testing.T) {
		svc, m := newService(t)
		m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(withLoan(t), nil)

		got, err := svc.Schedule(context.Background(), company, carID)
		require.NoError(t, err)
		require.Len(t, got, 12)
		assert.Equal(t, "1000.00", got[0].Interest.StringFixed(2))
		assert.Equal(t, "110000.00", got[0].Outstanding.StringFixed(2))
		assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got[1].DueDate)
	})
}

func TestService_PayInstallment(t *testing.T) {
	at := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		svc, m := newService(t)
		m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(withLoan(t), nil)
		m.repo.EXPECT().
			UpdateLoan(gomock.Any(), company, carID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ uuid.UUID, loan *finance.LoanDetails) error {
				assert.Equal(t, "110000.00", loan.OutstandingLoan.StringFixed(2))
				return nil
			})
		m.expenses.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p expense.CreateParams) (*expense.Expense, error) {
				assert.Equal(t, finance.PaymentEMI, p.PaymentType)
				assert.Equal(t, expense.StatusApproved, p.Status)
				assert.Equal(t, "11000.00", p.Amount.StringFixed(2))

				return &expense.Expense{ID: uuid.New()}, nil
			})

		got, err := svc.PayInstallment(context.Background(), company, carID, 1, at)
		require.NoError(t, err)
		assert.True(t, got.IsPaid)
		assert.Equal(t, at.Add(finance.EditWindow), *got.EditableUntil)
	})

	t.Run("Already Paid", func(t *testing.T) {
		svc, m := newService(t)
		v := withLoan(t)
		finance.MarkPaid(&v.Loan.AmortizationSchedule[0], at)
		m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(v, nil)

		_, err := svc.PayInstallment(context.Background(), company, carID, 1, at)
		assert.ErrorIs(t, err, vehicle.ErrInstallmentState)
	})

	t.Run("Unknown Month", func(t *testing.T) {
		svc, m := newService(t)
		m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(withLoan(t), nil)

		_, err := svc.PayInstallment(context.Background(), company, carID, 13, at)
		assert.ErrorIs(t, err, vehicle.ErrInstallmentState)
	})

	t.Run("Expense Fails", func(t *testing.T) {
		svc, m := newService(t)
		v := withLoan(t)
		bookErr := errors.New("insert failed")

		m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(v, nil)
		gomock.InOrder(
			m.repo.EXPECT().
				UpdateLoan(gomock.Any(), company, carID, gomock.Any()).
				DoAndReturn(func(_ context.Context, _, _ uuid.UUID, loan *finance.LoanDetails) error {
					assert.True(t, loan.AmortizationSchedule[0].IsPaid)
					return nil
				}),
			m.expenses.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, bookErr),
			m.repo.EXPECT().
				UpdateLoan(gomock.Any(), company, carID, gomock.Any()).
				DoAndReturn(func(_ context.Context, _, _ uuid.UUID, loan *finance.LoanDetails) error {
					assert.False(t, loan.AmortizationSchedule[0].IsPaid)
					assert.Equal(t, "120000.00", loan.OutstandingLoan.StringFixed(2))
					return nil
				}),
		)

		_, err := svc.PayInstallment(context.Background(), company, carID, 1, at)
		require.ErrorIs(t, err, bookErr)
		assert.False(t, v.Loan.AmortizationSchedule[0].IsPaid)
		assert.Nil(t, v.Loan.AmortizationSchedule[0].PaidAt)
	})
}

func TestService_InstallmentRoundTrip(t *testing.T) {
	svc, m := newService(t)
	v := withLoan(t)

	var booked []*expense.Expense

	m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(v, nil).Times(3)
	m.repo.EXPECT().UpdateLoan(gomock.Any(), company, carID, gomock.Any()).Return(nil).Times(3)
	m.expenses.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p expense.CreateParams) (*expense.Expense, error) {
			assert.Equal(t, finance.PaymentEMI, p.PaymentType)

			e := &expense.Expense{ID: uuid.New(), Amount: p.Amount, Description: p.Description, PaymentType: p.PaymentType, Date: p.Date}
			booked = append(booked, e)

			return e, nil
		}).
		Times(3)

	ctx := context.Background()

	_, err := svc.PayInstallment(ctx, company, carID, 1, time.Now())
	require.NoError(t, err)

	_, err = svc.UndoInstallment(ctx, company, carID, 1)
	require.NoError(t, err)

	got, err := svc.PayInstallment(ctx, company, carID, 1, time.Now())
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	assert.Equal(t, "110000.00", v.Loan.OutstandingLoan.StringFixed(2))

	require.Len(t, booked, 3)
	assert.Equal(t, "-11000.00", booked[1].Amount.StringFixed(2))

	totals := finance.NewAggregator(nil).Categorize(expense.Records(booked))
	assert.Equal(t, "11000.00", totals.EMI.StringFixed(2))
}

func TestService_UndoInstallment(t *testing.T) {
	paidAt := time.Now().Add(-time.Hour)

	t.Run("Within Window", func(t *testing.T) {
		svc, m := newService(t)
		v := withLoan(t)
		finance.MarkPaid(&v.Loan.AmortizationSchedule[0], paidAt)

		m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(v, nil)
		m.repo.EXPECT().UpdateLoan(gomock.Any(), company, carID, gomock.Any()).Return(nil)
		m.expenses.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p expense.CreateParams) (*expense.Expense, error) {
				assert.Equal(t, finance.PaymentEMI, p.PaymentType)
				assert.Equal(t, "-11000.00", p.Amount.StringFixed(2))

				return &expense.Expense{ID: uuid.New()}, nil
			})

		got, err := svc.UndoInstallment(context.Background(), company, carID, 1)
		require.NoError(t, err)
		assert.False(t, got.IsPaid)
		assert.Nil(t, got.PaidAt)
	})

	t.Run("Window Closed", func(t *testing.T) {
		svc, m := newService(t)
		v := withLoan(t)
		finance.MarkPaid(&v.Loan.AmortizationSchedule[0], time.Now().Add(-finance.EditWindow-time.Minute))

		m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(v, nil)

		_, err := svc.UndoInstallment(context.Background(), company, carID, 1)
		assert.ErrorIs(t, err, vehicle.ErrInstallmentLocked)
	})

	t.Run("Not Paid", func(t *testing.T) {
		svc, m := newService(t)
		m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(withLoan(t), nil)

		_, err := svc.UndoInstallment(context.Background(), company, carID, 2)
		assert.ErrorIs(t, err, vehicle.ErrInstallmentState)
	})
}

func TestService_Summary(t *testing.T) {
	ref := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	paidAt := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	t.Run("Aggregates", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(withLoan(t), nil)
		m.expenses.EXPECT().ForVehicle(gomock.Any(), company, carID).Return([]*expense.Expense{
			{Amount: decimal.NewFromInt(500), Description: "diesel refill", PaymentType: finance.PaymentExpenses, Date: ref.AddDate(0, -1, 0)},
			{Amount: decimal.NewFromInt(2000), Description: "workshop", PaymentType: finance.PaymentExpenses, ExpenseType: finance.ExpenseMaintenance, Date: ref.AddDate(0, -2, 0)},
			{Amount: decimal.NewFromInt(-300), Description: "maintenance correction", PaymentType: finance.PaymentExpenses, Date: ref.AddDate(0, -2, 0)},
			{Amount: decimal.NewFromInt(80), Description: "CAR SPA", PaymentType: finance.PaymentExpenses, Date: ref.AddDate(0, -1, 0)},
		}, nil)
		m.payments.EXPECT().ForVehicle(gomock.Any(), company, carID).Return([]*payment.Payment{
			{AmountPaid: decimal.NewFromInt(4560), Status: payment.StatusPaid, Type: payment.TypeReceived, PaidAt: &paidAt},
			{AmountPaid: decimal.NewFromInt(900), Status: payment.StatusDue, Type: payment.TypeReceived},
		}, nil)
		m.rules.EXPECT().Rules(gomock.Any(), company).Return(finance.Rules{
			{Category: finance.CategoryMaintenance, Keywords: []string{"car spa"}},
		}, nil)

		got, err := svc.Summary(context.Background(), company, carID, ref)
		require.NoError(t, err)

		assert.Equal(t, "500.00", got.CategoryTotals.Fuel.StringFixed(2))
		assert.Equal(t, "1780.00", got.CategoryTotals.Maintenance.StringFixed(2))
		assert.Equal(t, "2280.00", got.TotalExpenses.StringFixed(2))
		assert.Equal(t, "4560.00", got.TotalEarnings.StringFixed(2))
		assert.Equal(t, "50.00", got.ExpenseRatio.StringFixed(2))
		assert.Len(t, got.AmortizationSchedule, 12)
	})

	t.Run("Read Failure", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(nil, vehicle.ErrNotFound)
		m.expenses.EXPECT().ForVehicle(gomock.Any(), company, carID).Return(nil, nil).AnyTimes()
		m.payments.EXPECT().ForVehicle(gomock.Any(), company, carID).Return(nil, nil).AnyTimes()
		m.rules.EXPECT().Rules(gomock.Any(), company).Return(nil, nil).AnyTimes()

		_, err := svc.Summary(context.Background(), company, carID, ref)
		assert.ErrorIs(t, err, vehicle.ErrNotFound)
	})

	t.Run("Payments Error", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(withLoan(t), nil).AnyTimes()
		m.expenses.EXPECT().ForVehicle(gomock.Any(), company, carID).Return(nil, nil).AnyTimes()
		m.payments.EXPECT().ForVehicle(gomock.Any(), company, carID).Return(nil, errors.New("db error"))
		m.rules.EXPECT().Rules(gomock.Any(), company).Return(nil, nil).AnyTimes()

		_, err := svc.Summary(context.Background(), company, carID, ref)
		assert.Error(t, err)
	})
}
