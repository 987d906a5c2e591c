// Package finance derives the financial view of a vehicle from its raw records:
// expense categorization, operational totals, the trailing monthly average,
// the expense-to-earnings ratio, the loan amortization schedule and rent revenue.
//
// Every function here is pure. Callers pass the reference date explicitly so
// results are reproducible.
package finance

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidLoan   = errors.New("invalid loan")
)

// PaymentType is the structured payment classification of an expense.
type PaymentType string

const (
	PaymentRent       PaymentType = "rent"
	PaymentSecurity   PaymentType = "security"
	PaymentEMI        PaymentType = "emi"
	PaymentPrepayment PaymentType = "prepayment"
	PaymentExpenses   PaymentType = "expenses"
)

func (p PaymentType) Valid() bool {
	switch p {
	case PaymentRent, PaymentSecurity, PaymentEMI, PaymentPrepayment, PaymentExpenses:
		return true
	}

	return false
}

// ExpenseType refines expenses of payment type "expenses".
type ExpenseType string

const (
	ExpenseMaintenance ExpenseType = "maintenance"
	ExpenseInsurance   ExpenseType = "insurance"
	ExpenseFuel        ExpenseType = "fuel"
	ExpensePenalties   ExpenseType = "penalties"
	ExpenseGeneral     ExpenseType = "general"
)

func (e ExpenseType) Valid() bool {
	switch e {
	case ExpenseMaintenance, ExpenseInsurance, ExpenseFuel, ExpensePenalties, ExpenseGeneral, "":
		return true
	}

	return false
}

// Expense is the subset of an expense record the aggregator reads.
type Expense struct {
	Amount      decimal.Decimal
	Description string
	PaymentType PaymentType
	ExpenseType ExpenseType
	CreatedAt   time.Time
}

// Payment is the subset of a rent payment record the aggregator reads.
type Payment struct {
	AmountPaid     decimal.Decimal
	Paid           bool
	PaidAt         *time.Time
	CollectionDate *time.Time
	CreatedAt      time.Time
}

// EffectiveDate is the date a payment counts towards: PaidAt, then
// CollectionDate, then CreatedAt.
func (p Payment) EffectiveDate() time.Time {
	if p.PaidAt != nil {
		return *p.PaidAt
	}

	if p.CollectionDate != nil {
		return *p.CollectionDate
	}

	return p.CreatedAt
}
