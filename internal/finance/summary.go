package finance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Aggregator computes financial summaries with a fixed keyword rule set.
// It holds no mutable state and is safe for concurrent use.
type Aggregator struct {
	rules Rules
}

// NewAggregator returns an aggregator using rules, or the defaults when rules
// is empty.
func NewAggregator(rules Rules) *Aggregator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	return &Aggregator{rules: rules}
}

// WithRules returns an aggregator that evaluates extra before the current rules.
func (a *Aggregator) WithRules(extra Rules) *Aggregator {
	if len(extra) == 0 {
		return a
	}

	merged := make(Rules, 0, len(extra)+len(a.rules))
	merged = append(merged, extra...)
	merged = append(merged, a.rules...)

	return &Aggregator{rules: merged}
}

func (a *Aggregator) Rules() Rules {
	return a.rules
}

func (a *Aggregator) Classify(e Expense) Category {
	return a.rules.Classify(e)
}

// Categorize places every expense in exactly one bucket.
func (a *Aggregator) Categorize(expenses []Expense) CategoryTotals {
	totals := CategoryTotals{}

	for _, e := range expenses {
		totals.add(a.rules.Classify(e), e.Amount)
	}

	return totals
}

// TotalOperational sums every expense that is not a prepayment.
func (a *Aggregator) TotalOperational(expenses []Expense) decimal.Decimal {
	total := decimal.Zero

	for _, e := range expenses {
		if a.rules.Classify(e) == CategoryPrepayment {
			continue
		}

		total = total.Add(e.Amount)
	}

	return total
}

// MonthlyAverage is the operational spend of the trailing twelve months up to
// and including ref, divided by twelve.
func (a *Aggregator) MonthlyAverage(expenses []Expense, ref time.Time) decimal.Decimal {
	from := ref.AddDate(-1, 0, 0)
	total := decimal.Zero

	for _, e := range expenses {
		if e.CreatedAt.Before(from) || e.CreatedAt.After(ref) {
			continue
		}

		if a.rules.Classify(e) == CategoryPrepayment {
			continue
		}

		total = total.Add(e.Amount)
	}

	return round2(total.Div(twelve))
}

// SummaryInput is everything a summary is derived from.
type SummaryInput struct {
	Expenses      []Expense
	Payments      []Payment
	Loan          *LoanDetails
	ReferenceDate time.Time
}

// Summary is the derived financial view of a vehicle. It is never persisted.
type Summary struct {
	TotalExpenses        decimal.Decimal
	MonthlyAverage       decimal.Decimal
	CategoryTotals       CategoryTotals
	TotalEarnings        decimal.Decimal
	ExpenseRatio         decimal.Decimal
	AmortizationSchedule []ScheduleEntry
}

// Summarize builds the full summary. A nil loan leaves the schedule empty.
func (a *Aggregator) Summarize(in SummaryInput) (*Summary, error) {
	totals := a.Categorize(in.Expenses)
	operational := totals.Operational()
	earnings := TotalEarnings(in.Payments)

	s := &Summary{
		TotalExpenses:  operational,
		MonthlyAverage: a.MonthlyAverage(in.Expenses, in.ReferenceDate),
		CategoryTotals: totals,
		TotalEarnings:  earnings,
		ExpenseRatio:   ExpenseRatio(operational, earnings),
	}

	if in.Loan == nil {
		return s, nil
	}

	schedule, err := BuildAmortizationSchedule(*in.Loan)
	if err != nil {
		return nil, fmt.Errorf("building amortization schedule: %w", err)
	}

	s.AmortizationSchedule = MergePaymentState(schedule, in.Loan.AmortizationSchedule)

	return s, nil
}
