package payment

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
)

var (
	ErrNotFound       = errors.New("payment not found")
	ErrInvalidPayment = errors.New("invalid payment")
	ErrAlreadyPaid    = errors.New("payment already settled")
)

type Status string

const (
	StatusDue     Status = "due"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Type tells whether the company received the money or paid it out, e.g. a
// security deposit refund.
type Type string

const (
	TypeReceived Type = "received"
	TypePaid     Type = "paid"
)

// Week is the length of one rent period.
const Week = 7 * 24 * time.Hour

// Payment is one weekly rent due for a vehicle.
type Payment struct {
	ID             uuid.UUID
	CompanyID      uuid.UUID
	VehicleID      uuid.UUID
	DriverID       *uuid.UUID
	WeekStart      time.Time
	AmountDue      decimal.Decimal
	AmountPaid     decimal.Decimal
	Status         Status
	Type           Type
	PaidAt         *time.Time
	CollectionDate *time.Time
	CreatedAt      time.Time
}

// Balance is what is still owed for the week.
func (p *Payment) Balance() decimal.Decimal {
	b := p.AmountDue.Sub(p.AmountPaid)
	if b.IsNegative() {
		return decimal.Zero
	}

	return b
}

// Record is the view of the payment the aggregator works on. Outgoing
// payments never count as earnings.
func (p *Payment) Record() finance.Payment {
	return finance.Payment{
		AmountPaid:     p.AmountPaid,
		Paid:           p.Status == StatusPaid && p.Type != TypePaid,
		PaidAt:         p.PaidAt,
		CollectionDate: p.CollectionDate,
		CreatedAt:      p.CreatedAt,
	}
}

func Records(payments []*Payment) []finance.Payment {
	out := make([]finance.Payment, len(payments))
	for i, p := range payments {
		out[i] = p.Record()
	}

	return out
}
