package finance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EditWindow is how long a paid installment can still be reverted.
const EditWindow = 72 * time.Hour

var twelve = decimal.NewFromInt(12)

// LoanDetails are the financing terms of a vehicle.
type LoanDetails struct {
	TotalLoan         decimal.Decimal `json:"total_loan"`
	OutstandingLoan   decimal.Decimal `json:"outstanding_loan"`
	EMIPerMonth       decimal.Decimal `json:"emi_per_month"`
	InterestRate      decimal.Decimal `json:"interest_rate"` // annual, 0.10 is 10%
	DownPayment       decimal.Decimal `json:"down_payment"`
	TotalInstallments int             `json:"total_installments"`
	StartDate         time.Time       `json:"start_date"` // due date of the first installment

	AmortizationSchedule []ScheduleEntry `json:"amortization_schedule,omitempty"`
}

// ScheduleEntry is one month of the amortization schedule.
type ScheduleEntry struct {
	Month         int             `json:"month"`
	DueDate       time.Time       `json:"due_date"`
	Interest      decimal.Decimal `json:"interest"`
	Principal     decimal.Decimal `json:"principal"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	IsPaid        bool            `json:"is_paid"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	EditableUntil *time.Time      `json:"editable_until,omitempty"`
}

// Validate checks the loan terms the schedule builder relies on.
func (l LoanDetails) Validate() error {
	switch {
	case l.TotalLoan.IsNegative():
		return fmt.Errorf("%w: total loan is negative", ErrInvalidLoan)
	case l.OutstandingLoan.IsNegative():
		return fmt.Errorf("%w: outstanding loan is negative", ErrInvalidLoan)
	case l.EMIPerMonth.IsNegative():
		return fmt.Errorf("%w: emi is negative", ErrInvalidLoan)
	case l.InterestRate.IsNegative():
		return fmt.Errorf("%w: interest rate is negative", ErrInvalidLoan)
	case l.DownPayment.IsNegative():
		return fmt.Errorf("%w: down payment is negative", ErrInvalidLoan)
	case l.TotalInstallments <= 0:
		return fmt.Errorf("%w: total installments must be positive", ErrInvalidLoan)
	}

	firstInterest := round2(l.TotalLoan.Mul(l.InterestRate).Div(twelve))
	if l.TotalInstallments > 1 && l.TotalLoan.IsPositive() && l.EMIPerMonth.LessThanOrEqual(firstInterest) {
		return fmt.Errorf("%w: emi %s does not cover monthly interest %s", ErrInvalidLoan, l.EMIPerMonth, firstInterest)
	}

	return nil
}

// ComputeEMI returns the fixed monthly installment that repays principal over
// n months at the given annual rate.
func ComputeEMI(principal, annualRate decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 || !principal.IsPositive() {
		return decimal.Zero
	}

	count := decimal.NewFromInt(int64(n))
	if annualRate.IsZero() {
		return principal.DivRound(count, 2)
	}

	r := annualRate.DivRound(twelve, 16)
	factor := decimal.NewFromInt(1).Add(r).Pow(count)

	return principal.Mul(r).Mul(factor).DivRound(factor.Sub(decimal.NewFromInt(1)), 2)
}

// BuildAmortizationSchedule derives the month-by-month schedule from the loan
// terms, starting from the full loan amount. The final entry, or the first
// entry that would overshoot the balance, takes the remaining principal so the
// outstanding balance ends at zero.
func BuildAmortizationSchedule(loan LoanDetails) ([]ScheduleEntry, error) {
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	outstanding := loan.TotalLoan
	schedule := make([]ScheduleEntry, 0, loan.TotalInstallments)

	for month := 1; month <= loan.TotalInstallments; month++ {
		entry := ScheduleEntry{
			Month:       month,
			DueDate:     AddMonths(loan.StartDate, month-1),
			Interest:    decimal.Zero,
			Principal:   decimal.Zero,
			Outstanding: decimal.Zero,
		}

		if outstanding.IsPositive() {
			interest := round2(outstanding.Mul(loan.InterestRate).Div(twelve))
			principal := loan.EMIPerMonth.Sub(interest)

			if month == loan.TotalInstallments || principal.GreaterThanOrEqual(outstanding) {
				principal = outstanding
			}

			outstanding = outstanding.Sub(principal)
			entry.Interest = interest
			entry.Principal = principal
			entry.Outstanding = outstanding
		}

		schedule = append(schedule, entry)
	}

	return schedule, nil
}

// MergePaymentState copies the paid state of stored entries onto a freshly
// built schedule, matching by month.
func MergePaymentState(built, stored []ScheduleEntry) []ScheduleEntry {
	paid := make(map[int]ScheduleEntry, len(stored))
	for _, e := range stored {
		if e.IsPaid {
			paid[e.Month] = e
		}
	}

	for i := range built {
		s, ok := paid[built[i].Month]
		if !ok {
			continue
		}

		built[i].IsPaid = true
		built[i].PaidAt = s.PaidAt
		built[i].EditableUntil = s.EditableUntil
	}

	return built
}

// MarkPaid flags the entry as paid at the given time and opens its edit window.
func MarkPaid(e *ScheduleEntry, at time.Time) {
	editableUntil := at.Add(EditWindow)

	e.IsPaid = true
	e.PaidAt = &at
	e.EditableUntil = &editableUntil
}

// MarkUnpaid clears the paid state of the entry.
func MarkUnpaid(e *ScheduleEntry) {
	e.IsPaid = false
	e.PaidAt = nil
	e.EditableUntil = nil
}

// CanEdit reports whether a paid entry may still be reverted at now.
func CanEdit(e ScheduleEntry, now time.Time) bool {
	if !e.IsPaid || e.EditableUntil == nil {
		return false
	}

	return !now.After(*e.EditableUntil)
}

// OutstandingAfterPaid is the balance left once every paid entry is applied.
func OutstandingAfterPaid(total decimal.Decimal, schedule []ScheduleEntry) decimal.Decimal {
	outstanding := total

	for _, e := range schedule {
		if e.IsPaid {
			outstanding = outstanding.Sub(e.Principal)
		}
	}

	if outstanding.IsNegative() {
		return decimal.Zero
	}

	return outstanding
}

// AddMonths moves t forward by n calendar months, clamping the day to the
// length of the target month.
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()

	return first.AddDate(0, 0, min(t.Day(), last)-1)
}
