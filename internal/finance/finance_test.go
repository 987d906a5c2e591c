package finance_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAggregator_Categorize(t *testing.T) {
	type testCase struct {
		name     string
		expenses []finance.Expense
		verify   func(t *testing.T, got finance.CategoryTotals)
	}

	tests := []testCase{
		{
			name: "Keyword And Structured Fields",
			expenses: []finance.Expense{
				{Amount: dec("500"), Description: "diesel refill", PaymentType: finance.PaymentExpenses, ExpenseType: finance.ExpenseGeneral},
				{Amount: dec("2000"), Description: "gearbox", PaymentType: finance.PaymentExpenses, ExpenseType: finance.ExpenseMaintenance},
				{Amount: dec("-300"), Description: "maintenance correction", PaymentType: finance.PaymentExpenses},
			},
			verify: func(t *testing.T, got finance.CategoryTotals) {
				assertDecimal(t, "500", got.Fuel)
				assertDecimal(t, "1700", got.Maintenance)
				assertDecimal(t, "0", got.Other)
				assertDecimal(t, "2200", got.Operational())
			},
		},
		{
			name: "Payment Type Wins Over Description",
			expenses: []finance.Expense{
				{Amount: dec("11000"), Description: "fuel card top-up", PaymentType: finance.PaymentEMI},
				{Amount: dec("5000"), Description: "repair fund", PaymentType: finance.PaymentPrepayment},
				{Amount: dec("800"), Description: "service deposit", PaymentType: finance.PaymentSecurity},
			},
			verify: func(t *testing.T, got finance.CategoryTotals) {
				assertDecimal(t, "11000", got.EMI)
				assertDecimal(t, "5000", got.Prepayments)
				assertDecimal(t, "800", got.Other)
				assertDecimal(t, "0", got.Fuel)
				assertDecimal(t, "0", got.Maintenance)
			},
		},
		{
			name: "Keyword Order And Case",
			expenses: []finance.Expense{
				{Amount: dec("100"), Description: "Traffic FINE"},
				{Amount: dec("200"), Description: "Late Fee on insurance"},
				{Amount: dec("300"), Description: "EMI March"},
				{Amount: dec("400"), Description: "principal top-up"},
				{Amount: dec("50"), Description: "car wash"},
			},
			verify: func(t *testing.T, got finance.CategoryTotals) {
				assertDecimal(t, "100", got.Penalties)
				assertDecimal(t, "200", got.Insurance)
				assertDecimal(t, "300", got.EMI)
				assertDecimal(t, "400", got.Prepayments)
				assertDecimal(t, "50", got.Other)
			},
		},
		{
			name:     "Empty",
			expenses: nil,
			verify: func(t *testing.T, got finance.CategoryTotals) {
				assertDecimal(t, "0", got.Operational())
				assertDecimal(t, "0", got.Prepayments)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := finance.NewAggregator(nil)
			tt.verify(t, agg.Categorize(tt.expenses))
		})
	}
}

func TestAggregator_CategorizePartitionsTotal(t *testing.T) {
	expenses := []finance.Expense{
		{Amount: dec("10.50"), Description: "petrol"},
		{Amount: dec("99.99"), ExpenseType: finance.ExpenseInsurance},
		{Amount: dec("1000"), PaymentType: finance.PaymentPrepayment},
		{Amount: dec("12"), Description: "parking"},
		{Amount: dec("7.25"), Description: "penalty"},
		{Amount: dec("11000"), PaymentType: finance.PaymentEMI},
	}

	agg := finance.NewAggregator(nil)
	totals := agg.Categorize(expenses)

	all := decimal.Sum(totals.Fuel, totals.Maintenance, totals.Insurance, totals.Penalties,
		totals.EMI, totals.Prepayments, totals.Other)
	assertDecimal(t, "12129.74", all)
	assertDecimal(t, agg.TotalOperational(expenses).String(), totals.Operational())
	assertDecimal(t, "11129.74", agg.TotalOperational(expenses))
}

func TestAggregator_WithRules(t *testing.T) {
	agg := finance.NewAggregator(nil).WithRules(finance.Rules{
		{Category: finance.CategoryInsurance, Keywords: []string{"fuel levy"}},
	})

	got := agg.Classify(finance.Expense{Description: "Annual FUEL LEVY", Amount: dec("10")})
	assert.Equal(t, finance.CategoryInsurance, got)

	got = agg.Classify(finance.Expense{Description: "fuel", Amount: dec("10")})
	assert.Equal(t, finance.CategoryFuel, got)
}

func TestAggregator_MonthlyAverage(t *testing.T) {
	ref := date(2024, time.June, 15)

	type testCase struct {
		name     string
		expenses []finance.Expense
		want     string
	}

	tests := []testCase{
		{
			name:     "Empty",
			expenses: nil,
			want:     "0",
		},
		{
			name: "Window Bounds Inclusive",
			expenses: []finance.Expense{
				{Amount: dec("1200"), Description: "fuel", CreatedAt: date(2023, time.June, 15)},
				{Amount: dec("1200"), Description: "repair", CreatedAt: ref},
				{Amount: dec("5000"), Description: "fuel", CreatedAt: date(2023, time.June, 14)},
				{Amount: dec("5000"), Description: "fuel", CreatedAt: date(2024, time.June, 16)},
			},
			want: "200",
		},
		{
			name: "Prepayments Excluded And Rounded",
			expenses: []finance.Expense{
				{Amount: dec("100"), Description: "diesel", CreatedAt: date(2024, time.January, 3)},
				{Amount: dec("9000"), PaymentType: finance.PaymentPrepayment, CreatedAt: date(2024, time.February, 1)},
			},
			want: "8.33",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := finance.NewAggregator(nil)
			assertDecimal(t, tt.want, agg.MonthlyAverage(tt.expenses, ref))
		})
	}
}

func TestExpenseRatio(t *testing.T) {
	tests := []struct {
		name        string
		operational string
		earnings    string
		want        string
	}{
		{name: "No Earnings", operational: "0", earnings: "0", want: "0"},
		{name: "Spend Without Earnings", operational: "500", earnings: "0", want: "0"},
		{name: "Half", operational: "100", earnings: "200", want: "50"},
		{name: "Rounded", operational: "1", earnings: "3", want: "33.33"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, tt.want, finance.ExpenseRatio(dec(tt.operational), dec(tt.earnings)))
		})
	}
}

func TestBuildAmortizationSchedule(t *testing.T) {
	loan := finance.LoanDetails{
		TotalLoan:         dec("120000"),
		OutstandingLoan:   dec("120000"),
		EMIPerMonth:       dec("11000"),
		InterestRate:      dec("0.10"),
		TotalInstallments: 12,
		StartDate:         date(2024, time.January, 31),
	}

	schedule, err := finance.BuildAmortizationSchedule(loan)
	require.NoError(t, err)
	require.Len(t, schedule, 12)

	first := schedule[0]
	assert.Equal(t, 1, first.Month)
	assertDecimal(t, "1000", first.Interest)
	assertDecimal(t, "10000", first.Principal)
	assertDecimal(t, "110000", first.Outstanding)
	assert.False(t, first.IsPaid)

	assertDecimal(t, "916.67", schedule[1].Interest)
	assertDecimal(t, "10083.33", schedule[1].Principal)

	last := schedule[11]
	assertDecimal(t, "5300.16", last.Principal)
	assertDecimal(t, "0", last.Outstanding)

	principal := decimal.Zero
	prev := loan.TotalLoan

	for _, e := range schedule {
		principal = principal.Add(e.Principal)

		assert.True(t, e.Outstanding.LessThanOrEqual(prev), "month %d outstanding increased", e.Month)
		prev = e.Outstanding

		if e.Month < 12 {
			assertDecimal(t, "11000", e.Interest.Add(e.Principal))
		}
	}

	assertDecimal(t, "120000", principal)

	assert.Equal(t, date(2024, time.February, 29), schedule[1].DueDate)
	assert.Equal(t, date(2024, time.March, 31), schedule[2].DueDate)
	assert.Equal(t, date(2024, time.April, 30), schedule[3].DueDate)
}

func TestBuildAmortizationSchedule_EarlyPayoff(t *testing.T) {
	loan := finance.LoanDetails{
		TotalLoan:         dec("1000"),
		EMIPerMonth:       dec("400"),
		InterestRate:      dec("0"),
		TotalInstallments: 5,
		StartDate:         date(2024, time.May, 1),
	}

	schedule, err := finance.BuildAmortizationSchedule(loan)
	require.NoError(t, err)
	require.Len(t, schedule, 5)

	assertDecimal(t, "200", schedule[2].Principal)
	assertDecimal(t, "0", schedule[2].Outstanding)

	for _, e := range schedule[3:] {
		assertDecimal(t, "0", e.Principal)
		assertDecimal(t, "0", e.Interest)
		assertDecimal(t, "0", e.Outstanding)
	}
}

func TestBuildAmortizationSchedule_FinalEntryAbsorbsRemainder(t *testing.T) {
	loan := finance.LoanDetails{
		TotalLoan:         dec("1000"),
		EMIPerMonth:       dec("333.33"),
		InterestRate:      dec("0"),
		TotalInstallments: 3,
		StartDate:         date(2024, time.May, 1),
	}

	schedule, err := finance.BuildAmortizationSchedule(loan)
	require.NoError(t, err)

	assertDecimal(t, "333.34", schedule[2].Principal)
	assertDecimal(t, "0", schedule[2].Outstanding)
}

func TestBuildAmortizationSchedule_Invalid(t *testing.T) {
	tests := []struct {
		name string
		loan finance.LoanDetails
	}{
		{name: "Zero Installments", loan: finance.LoanDetails{TotalLoan: dec("100"), EMIPerMonth: dec("10")}},
		{name: "Negative Rate", loan: finance.LoanDetails{TotalLoan: dec("100"), EMIPerMonth: dec("10"), InterestRate: dec("-0.1"), TotalInstallments: 12}},
		{name: "Negative Loan", loan: finance.LoanDetails{TotalLoan: dec("-1"), EMIPerMonth: dec("10"), TotalInstallments: 12}},
		{name: "EMI Below Interest", loan: finance.LoanDetails{TotalLoan: dec("120000"), EMIPerMonth: dec("1000"), InterestRate: dec("0.10"), TotalInstallments: 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := finance.BuildAmortizationSchedule(tt.loan)
			assert.True(t, errors.Is(err, finance.ErrInvalidLoan))
		})
	}
}

func TestComputeEMI(t *testing.T) {
	assertDecimal(t, "10549.91", finance.ComputeEMI(dec("120000"), dec("0.10"), 12))
	assertDecimal(t, "100", finance.ComputeEMI(dec("1200"), dec("0"), 12))
	assertDecimal(t, "0", finance.ComputeEMI(dec("1200"), dec("0.1"), 0))
}

func TestInstallmentEditWindow(t *testing.T) {
	paidAt := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	entry := finance.ScheduleEntry{Month: 1}

	assert.False(t, finance.CanEdit(entry, paidAt))

	finance.MarkPaid(&entry, paidAt)
	assert.True(t, entry.IsPaid)
	assert.True(t, finance.CanEdit(entry, paidAt.Add(72*time.Hour)))
	assert.False(t, finance.CanEdit(entry, paidAt.Add(72*time.Hour+time.Second)))

	finance.MarkUnpaid(&entry)
	assert.False(t, entry.IsPaid)
	assert.Nil(t, entry.PaidAt)
}

func TestMonthlyRevenue(t *testing.T) {
	paidAt := date(2024, time.March, 5)
	collected := date(2024, time.March, 10)
	aprilPaid := date(2024, time.April, 1)

	payments := []finance.Payment{
		{AmountPaid: dec("5000"), Paid: true, PaidAt: &paidAt, CreatedAt: date(2024, time.February, 26)},
		{AmountPaid: dec("3000"), Paid: true, CollectionDate: &collected, CreatedAt: date(2024, time.February, 26)},
		{AmountPaid: dec("700"), Paid: false, PaidAt: &paidAt},
		{AmountPaid: dec("900"), Paid: true, PaidAt: &aprilPaid, CollectionDate: &collected},
		{AmountPaid: dec("100"), Paid: true, CreatedAt: date(2024, time.March, 31)},
	}

	assertDecimal(t, "8100", finance.MonthlyRevenue(payments, date(2024, time.March, 20)))
	assertDecimal(t, "900", finance.MonthlyRevenue(payments, date(2024, time.April, 1)))
	assertDecimal(t, "0", finance.MonthlyRevenue(nil, date(2024, time.April, 1)))
	assertDecimal(t, "9000", finance.TotalEarnings(payments))
}

func TestAggregator_Summarize(t *testing.T) {
	ref := date(2024, time.March, 31)
	paidAt := date(2024, time.March, 5)

	in := finance.SummaryInput{
		Expenses: []finance.Expense{
			{Amount: dec("500"), Description: "diesel refill", CreatedAt: date(2024, time.March, 2)},
			{Amount: dec("2000"), ExpenseType: finance.ExpenseMaintenance, CreatedAt: date(2024, time.March, 3)},
			{Amount: dec("-300"), Description: "maintenance correction", CreatedAt: date(2024, time.March, 4)},
		},
		Payments: []finance.Payment{
			{AmountPaid: dec("4400"), Paid: true, PaidAt: &paidAt},
		},
		ReferenceDate: ref,
	}

	agg := finance.NewAggregator(nil)

	t.Run("Without Loan", func(t *testing.T) {
		got, err := agg.Summarize(in)
		require.NoError(t, err)

		assertDecimal(t, "2200", got.TotalExpenses)
		assertDecimal(t, "183.33", got.MonthlyAverage)
		assertDecimal(t, "4400", got.TotalEarnings)
		assertDecimal(t, "50", got.ExpenseRatio)
		assert.Empty(t, got.AmortizationSchedule)
	})

	t.Run("Keeps Paid State", func(t *testing.T) {
		paid := finance.ScheduleEntry{Month: 1}
		finance.MarkPaid(&paid, paidAt)

		withLoan := in
		withLoan.Loan = &finance.LoanDetails{
			TotalLoan:            dec("120000"),
			EMIPerMonth:          dec("11000"),
			InterestRate:         dec("0.10"),
			TotalInstallments:    12,
			StartDate:            date(2024, time.March, 1),
			AmortizationSchedule: []finance.ScheduleEntry{paid},
		}

		got, err := agg.Summarize(withLoan)
		require.NoError(t, err)
		require.Len(t, got.AmortizationSchedule, 12)
		assert.True(t, got.AmortizationSchedule[0].IsPaid)
		assert.False(t, got.AmortizationSchedule[1].IsPaid)
	})

	t.Run("Invalid Loan", func(t *testing.T) {
		bad := in
		bad.Loan = &finance.LoanDetails{TotalLoan: dec("1000")}

		_, err := agg.Summarize(bad)
		assert.ErrorIs(t, err, finance.ErrInvalidLoan)
	})
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1234.56", want: "1234.56"},
		{in: "1.234,56", want: "1234.56"},
		{in: "-588,74", want: "-588.74"},
		{in: " 10 ", want: "10"},
		{in: "", wantErr: true},
		{in: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := finance.ParseAmount(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, finance.ErrInvalidAmount)
				return
			}

			require.NoError(t, err)
			assertDecimal(t, tt.want, got)
		})
	}
}

func TestLoadRules(t *testing.T) {
	doc := `
rules:
  - category: fuel
    keywords: [cng, "gas station"]
  - category: penalties
    keywords: [challan]
`
	rules, err := finance.LoadRules(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, rules, 2)

	c, ok := rules.Match("Paid traffic CHALLAN")
	assert.True(t, ok)
	assert.Equal(t, finance.CategoryPenalties, c)

	_, err = finance.LoadRules(strings.NewReader("rules:\n  - category: snacks\n    keywords: [chips]\n"))
	assert.Error(t, err)
}
