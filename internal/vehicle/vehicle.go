package vehicle

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
)

var (
	ErrNotFound          = errors.New("vehicle not found")
	ErrInvalidVehicle    = errors.New("invalid vehicle")
	ErrNoLoan            = errors.New("vehicle has no loan")
	ErrInstallmentLocked = errors.New("installment can no longer be edited")
	ErrInstallmentState  = errors.New("installment is not in the expected state")
)

// Vehicle is a car or bike in a company's fleet. Loan is nil for vehicles
// bought outright.
type Vehicle struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	Registration string
	Make         string
	Model        string
	Year         int
	DriverID     *uuid.UUID
	WeeklyRent   decimal.Decimal
	ImageURLs    []string
	Loan         *finance.LoanDetails
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
}

// entry returns the schedule entry for month, or nil.
func (v *Vehicle) entry(month int) *finance.ScheduleEntry {
	if v.Loan == nil {
		return nil
	}

	for i := range v.Loan.AmortizationSchedule {
		if v.Loan.AmortizationSchedule[i].Month == month {
			return &v.Loan.AmortizationSchedule[i]
		}
	}

	return nil
}
