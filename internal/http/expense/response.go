package expense

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/httpx"
)

type Response struct {
	ID             uuid.UUID           `json:"id"`
	VehicleID      uuid.UUID           `json:"vehicle_id"`
	DriverID       *uuid.UUID          `json:"driver_id,omitempty"`
	Amount         string              `json:"amount"`
	Description    string              `json:"description"`
	RawDescription string              `json:"raw_description,omitempty"`
	PaymentType    finance.PaymentType `json:"payment_type"`
	ExpenseType    finance.ExpenseType `json:"expense_type,omitempty"`
	Status         expense.Status      `json:"status"`
	ReceiptURL     string              `json:"receipt_url,omitempty"`
	ReviewedBy     *uuid.UUID          `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time          `json:"reviewed_at,omitempty"`
	Date           time.Time           `json:"date"`
	CreatedAt      time.Time           `json:"created_at"`
}

// Params is the wire form of a not yet stored expense.
type Params struct {
	VehicleID      uuid.UUID           `json:"vehicle_id" validate:"required"`
	DriverID       *uuid.UUID          `json:"driver_id"`
	Amount         string              `json:"amount" validate:"required"`
	Description    string              `json:"description" validate:"required,max=200"`
	RawDescription string              `json:"raw_description"`
	PaymentType    finance.PaymentType `json:"payment_type"`
	ExpenseType    finance.ExpenseType `json:"expense_type"`
	Date           time.Time           `json:"date"`
}

func ToResponse(e *expense.Expense) Response {
	return Response{
		ID:             e.ID,
		VehicleID:      e.VehicleID,
		DriverID:       e.DriverID,
		Amount:         httpx.Money(e.Amount),
		Description:    e.Description,
		RawDescription: e.RawDescription,
		PaymentType:    e.PaymentType,
		ExpenseType:    e.ExpenseType,
		Status:         e.Status,
		ReceiptURL:     e.ReceiptURL,
		ReviewedBy:     e.ReviewedBy,
		ReviewedAt:     e.ReviewedAt,
		Date:           e.Date,
		CreatedAt:      e.CreatedAt,
	}
}

func ToResponses(expenses []*expense.Expense) []Response {
	resp := make([]Response, 0, len(expenses))
	for _, e := range expenses {
		resp = append(resp, ToResponse(e))
	}

	return resp
}

func ToParams(p expense.CreateParams) Params {
	return Params{
		VehicleID:      p.VehicleID,
		DriverID:       p.DriverID,
		Amount:         httpx.Money(p.Amount),
		Description:    p.Description,
		RawDescription: p.RawDescription,
		PaymentType:    p.PaymentType,
		ExpenseType:    p.ExpenseType,
		Date:           p.Date,
	}
}

// CreateParams converts wire params for the given company.
func (p Params) CreateParams(companyID uuid.UUID) (expense.CreateParams, error) {
	amount, err := httpx.Amount(p.Amount, false)
	if err != nil {
		return expense.CreateParams{}, err
	}

	return expense.CreateParams{
		CompanyID:      companyID,
		VehicleID:      p.VehicleID,
		DriverID:       p.DriverID,
		Amount:         amount,
		Description:    p.Description,
		RawDescription: p.RawDescription,
		PaymentType:    p.PaymentType,
		ExpenseType:    p.ExpenseType,
		Date:           p.Date,
	}, nil
}
