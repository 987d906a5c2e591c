package vehicle

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/httpx"
	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
)

type vehicleResponse struct {
	ID           uuid.UUID     `json:"id"`
	Registration string        `json:"registration"`
	Make         string        `json:"make,omitempty"`
	Model        string        `json:"model,omitempty"`
	Year         int           `json:"year,omitempty"`
	DriverID     *uuid.UUID    `json:"driver_id,omitempty"`
	WeeklyRent   string        `json:"weekly_rent"`
	ImageURLs    []string      `json:"image_urls"`
	Loan         *loanResponse `json:"loan,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    *time.Time    `json:"updated_at,omitempty"`
}

type loanResponse struct {
	TotalLoan         string `json:"total_loan"`
	OutstandingLoan   string `json:"outstanding_loan"`
	EMIPerMonth       string `json:"emi_per_month"`
	InterestRate      string `json:"interest_rate"`
	DownPayment       string `json:"down_payment"`
	TotalInstallments int    `json:"total_installments"`
	StartDate         string `json:"start_date"`
}

type entryResponse struct {
	Month         int        `json:"month"`
	DueDate       string     `json:"due_date"`
	Interest      string     `json:"interest"`
	Principal     string     `json:"principal"`
	Outstanding   string     `json:"outstanding"`
	IsPaid        bool       `json:"is_paid"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	EditableUntil *time.Time `json:"editable_until,omitempty"`
}

type categoryTotalsResponse struct {
	Fuel        string `json:"fuel"`
	Maintenance string `json:"maintenance"`
	Insurance   string `json:"insurance"`
	Penalties   string `json:"penalties"`
	EMI         string `json:"emi"`
	Prepayments string `json:"prepayments"`
	Other       string `json:"other"`
}

type summaryResponse struct {
	TotalExpenses        string                 `json:"total_expenses"`
	MonthlyAverage       string                 `json:"monthly_average"`
	CategoryTotals       categoryTotalsResponse `json:"category_totals"`
	TotalEarnings        string                 `json:"total_earnings"`
	ExpenseRatio         string                 `json:"expense_ratio"`
	AmortizationSchedule []entryResponse        `json:"amortization_schedule,omitempty"`
}

func toResponse(v *vehicle.Vehicle) vehicleResponse {
	resp := vehicleResponse{
		ID:           v.ID,
		Registration: v.Registration,
		Make:         v.Make,
		Model:        v.Model,
		Year:         v.Year,
		DriverID:     v.DriverID,
		WeeklyRent:   httpx.Money(v.WeeklyRent),
		ImageURLs:    v.ImageURLs,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}

	if resp.ImageURLs == nil {
		resp.ImageURLs = []string{}
	}

	if l := v.Loan; l != nil {
		resp.Loan = &loanResponse{
			TotalLoan:         httpx.Money(l.TotalLoan),
			OutstandingLoan:   httpx.Money(l.OutstandingLoan),
			EMIPerMonth:       httpx.Money(l.EMIPerMonth),
			InterestRate:      l.InterestRate.String(),
			DownPayment:       httpx.Money(l.DownPayment),
			TotalInstallments: l.TotalInstallments,
			StartDate:         l.StartDate.Format(time.DateOnly),
		}
	}

	return resp
}

func toEntryResponse(e finance.ScheduleEntry) entryResponse {
	return entryResponse{
		Month:         e.Month,
		DueDate:       e.DueDate.Format(time.DateOnly),
		Interest:      httpx.Money(e.Interest),
		Principal:     httpx.Money(e.Principal),
		Outstanding:   httpx.Money(e.Outstanding),
		IsPaid:        e.IsPaid,
		PaidAt:        e.PaidAt,
		EditableUntil: e.EditableUntil,
	}
}

func toScheduleResponse(schedule []finance.ScheduleEntry) []entryResponse {
	resp := make([]entryResponse, len(schedule))
	for i, e := range schedule {
		resp[i] = toEntryResponse(e)
	}

	return resp
}

func toSummaryResponse(s *finance.Summary) summaryResponse {
	t := s.CategoryTotals

	resp := summaryResponse{
		TotalExpenses:  httpx.Money(s.TotalExpenses),
		MonthlyAverage: httpx.Money(s.MonthlyAverage),
		CategoryTotals: categoryTotalsResponse{
			Fuel:        httpx.Money(t.Fuel),
			Maintenance: httpx.Money(t.Maintenance),
			Insurance:   httpx.Money(t.Insurance),
			Penalties:   httpx.Money(t.Penalties),
			EMI:         httpx.Money(t.EMI),
			Prepayments: httpx.Money(t.Prepayments),
			Other:       httpx.Money(t.Other),
		},
		TotalEarnings: httpx.Money(s.TotalEarnings),
		ExpenseRatio:  httpx.Money(s.ExpenseRatio),
	}

	if len(s.AmortizationSchedule) > 0 {
		resp.AmortizationSchedule = toScheduleResponse(s.AmortizationSchedule)
	}

	return resp
}
