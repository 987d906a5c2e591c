package payment

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
	authhttp "github.com/MrJamesThe3rd/fleetdesk/internal/http/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/httpx"
	"github.com/MrJamesThe3rd/fleetdesk/internal/payment"
)

type Handler struct {
	svc *payment.Service
	now func() time.Time
}

func NewHandler(svc *payment.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/revenue", h.revenue)
	r.Get("/{id}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(authhttp.RequireRole(auth.RoleOperator))

		r.Post("/", h.create)
		r.Post("/{id}/collect", h.collect)
	})
}

type paymentResponse struct {
	ID             uuid.UUID      `json:"id"`
	VehicleID      uuid.UUID      `json:"vehicle_id"`
	DriverID       *uuid.UUID     `json:"driver_id,omitempty"`
	WeekStart      string         `json:"week_start"`
	AmountDue      string         `json:"amount_due"`
	AmountPaid     string         `json:"amount_paid"`
	Balance        string         `json:"balance"`
	Status         payment.Status `json:"status"`
	Type           payment.Type   `json:"type"`
	PaidAt         *time.Time     `json:"paid_at,omitempty"`
	CollectionDate *time.Time     `json:"collection_date,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

type createRequest struct {
	VehicleID uuid.UUID    `json:"vehicle_id" validate:"required"`
	DriverID  *uuid.UUID   `json:"driver_id"`
	WeekStart string       `json:"week_start" validate:"required,datetime=2006-01-02"`
	AmountDue string       `json:"amount_due" validate:"required"`
	Type      payment.Type `json:"type" validate:"omitempty,oneof=received paid"`
}

type collectRequest struct {
	Amount         string     `json:"amount" validate:"required"`
	PaidAt         *time.Time `json:"paid_at"`
	CollectionDate *time.Time `json:"collection_date"`
}

type revenueResponse struct {
	Month     string     `json:"month"`
	VehicleID *uuid.UUID `json:"vehicle_id,omitempty"`
	Revenue   string     `json:"revenue"`
}

func toResponse(p *payment.Payment) paymentResponse {
	return paymentResponse{
		ID:             p.ID,
		VehicleID:      p.VehicleID,
		DriverID:       p.DriverID,
		WeekStart:      p.WeekStart.Format(time.DateOnly),
		AmountDue:      httpx.Money(p.AmountDue),
		AmountPaid:     httpx.Money(p.AmountPaid),
		Balance:        httpx.Money(p.Balance()),
		Status:         p.Status,
		Type:           p.Type,
		PaidAt:         p.PaidAt,
		CollectionDate: p.CollectionDate,
		CreatedAt:      p.CreatedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}

	amount, err := httpx.Amount(req.AmountDue, false)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	weekStart, _ := time.Parse(time.DateOnly, req.WeekStart)

	p, err := h.svc.CreateDue(r.Context(), payment.CreateParams{
		CompanyID: httpx.Session(r).CompanyID,
		VehicleID: req.VehicleID,
		DriverID:  req.DriverID,
		WeekStart: weekStart,
		AmountDue: amount,
		Type:      req.Type,
	})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toResponse(p))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := payment.ListFilter{CompanyID: httpx.Session(r).CompanyID}

	var err error

	if filter.VehicleID, err = httpx.OptionalID(r, "vehicle_id"); err != nil {
		httpx.Error(w, r, err)
		return
	}

	if filter.DriverID, err = httpx.OptionalID(r, "driver_id"); err != nil {
		httpx.Error(w, r, err)
		return
	}

	if filter.From, err = httpx.Date(r, "from"); err != nil {
		httpx.Error(w, r, err)
		return
	}

	if filter.To, err = httpx.Date(r, "to"); err != nil {
		httpx.Error(w, r, err)
		return
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := payment.Status(s)

		switch status {
		case payment.StatusDue, payment.StatusPaid, payment.StatusOverdue:
			filter.Status = &status
		default:
			httpx.Error(w, r, fmt.Errorf("%w: unknown status %q", httpx.ErrBadRequest, s))
			return
		}
	}

	payments, err := h.svc.List(r.Context(), filter)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	resp := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, toResponse(p))
	}

	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	p, err := h.svc.Get(r.Context(), httpx.Session(r).CompanyID, id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) collect(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	var req collectRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}

	amount, err := httpx.Amount(req.Amount, false)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	p, err := h.svc.Collect(r.Context(), httpx.Session(r).CompanyID, id, payment.CollectParams{
		Amount:         amount,
		PaidAt:         req.PaidAt,
		CollectionDate: req.CollectionDate,
	})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toResponse(p))
}

// revenue reports the earnings of a month, given as YYYY-MM, defaulting to
// the current one.
func (h *Handler) revenue(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	if s := r.URL.Query().Get("month"); s != "" {
		m, err := time.Parse("2006-01", s)
		if err != nil {
			httpx.Error(w, r, fmt.Errorf("%w: invalid month", httpx.ErrBadRequest))
			return
		}

		month = m
	}

	vehicleID, err := httpx.OptionalID(r, "vehicle_id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	revenue, err := h.svc.MonthlyRevenue(r.Context(), httpx.Session(r).CompanyID, month, vehicleID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, revenueResponse{
		Month:     month.Format("2006-01"),
		VehicleID: vehicleID,
		Revenue:   httpx.Money(revenue),
	})
}
