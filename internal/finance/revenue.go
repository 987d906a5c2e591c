package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthStart returns the first instant of t's month in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthlyRevenue sums the amount paid of paid payments whose effective date
// falls in the calendar month containing month.
func MonthlyRevenue(payments []Payment, month time.Time) decimal.Decimal {
	start := MonthStart(month)
	end := start.AddDate(0, 1, 0)
	total := decimal.Zero

	for _, p := range payments {
		if !p.Paid {
			continue
		}

		d := p.EffectiveDate()
		if d.Before(start) || !d.Before(end) {
			continue
		}

		total = total.Add(p.AmountPaid)
	}

	return total
}

// TotalEarnings sums the amount paid of every paid payment.
func TotalEarnings(payments []Payment) decimal.Decimal {
	total := decimal.Zero

	for _, p := range payments {
		if p.Paid {
			total = total.Add(p.AmountPaid)
		}
	}

	return total
}

// ExpenseRatio is operational spend as a percentage of earnings, rounded to
// two places. It is zero when there are no earnings.
func ExpenseRatio(totalOperational, totalEarnings decimal.Decimal) decimal.Decimal {
	if totalEarnings.IsZero() {
		return decimal.Zero
	}

	return round2(totalOperational.Div(totalEarnings).Mul(decimal.NewFromInt(100)))
}
