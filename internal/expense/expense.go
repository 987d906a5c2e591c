package expense

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
)

var (
	ErrNotFound          = errors.New("expense not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidExpense    = errors.New("invalid expense")
)

const maxDescriptionLen = 200

// Status is the approval state of an expense.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Final reports whether no further transition is allowed.
func (s Status) Final() bool {
	return s == StatusApproved || s == StatusRejected
}

// Expense is a cost recorded against a vehicle.
type Expense struct {
	ID             uuid.UUID
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
	ReviewedBy     *uuid.UUID
	ReviewedAt     *time.Time
	Date           time.Time
	CreatedAt      time.Time
}

// Record is the view of the expense the aggregator works on. The expense date
// is the point in time it is attributed to.
func (e *Expense) Record() finance.Expense {
	return finance.Expense{
		Amount:      e.Amount,
		Description: e.Description,
		PaymentType: e.PaymentType,
		ExpenseType: e.ExpenseType,
		CreatedAt:   e.Date,
	}
}

// Records converts a list of expenses for the aggregator.
func Records(expenses []*Expense) []finance.Expense {
	out := make([]finance.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = e.Record()
	}

	return out
}

// NormalizeLegacyType maps the single free-form type used by older exports
// onto the structured payment and expense types.
func NormalizeLegacyType(legacy string) (finance.PaymentType, finance.ExpenseType) {
	switch strings.ToLower(strings.TrimSpace(legacy)) {
	case "rent":
		return finance.PaymentRent, ""
	case "security", "deposit":
		return finance.PaymentSecurity, ""
	case "emi":
		return finance.PaymentEMI, ""
	case "prepayment":
		return finance.PaymentPrepayment, ""
	case "fuel":
		return finance.PaymentExpenses, finance.ExpenseFuel
	case "maintenance", "repair":
		return finance.PaymentExpenses, finance.ExpenseMaintenance
	case "insurance":
		return finance.PaymentExpenses, finance.ExpenseInsurance
	case "penalty", "penalties", "fine":
		return finance.PaymentExpenses, finance.ExpensePenalties
	}

	return finance.PaymentExpenses, finance.ExpenseGeneral
}
