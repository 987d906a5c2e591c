package vehicle

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	authhttp "github.com/MrJamesThe3rd/fleetdesk/internal/http/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/httpx"
	"github.com/MrJamesThe3rd/fleetdesk/internal/media"
	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
)

type Handler struct {
	svc      *vehicle.Service
	uploader httpx.Uploader
	now      func() time.Time
}

// NewHandler builds the vehicle handler. Photo uploads are only routed when
// uploader is set.
func NewHandler(svc *vehicle.Service, uploader httpx.Uploader) *Handler {
	return &Handler{svc: svc, uploader: uploader, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/schedule", h.schedule)
	r.Get("/{id}/summary", h.summary)

	r.Group(func(r chi.Router) {
		r.Use(authhttp.RequireRole(auth.RoleOperator))

		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Put("/{id}/loan", h.setLoan)
		r.Post("/{id}/schedule/{month}/pay", h.pay)
		r.Delete("/{id}/schedule/{month}/pay", h.undo)

		if h.uploader != nil {
			r.Post("/{id}/images", h.image)
		}
	})

	r.With(authhttp.RequireRole(auth.RoleAdmin)).Delete("/{id}", h.delete)
}

type loanRequest struct {
	TotalLoan         string `json:"total_loan" validate:"required"`
	EMIPerMonth       string `json:"emi_per_month"`
	InterestRate      string `json:"interest_rate" validate:"required"`
	DownPayment       string `json:"down_payment"`
	TotalInstallments int    `json:"total_installments" validate:"required,gt=0"`
	StartDate         string `json:"start_date" validate:"required,datetime=2006-01-02"`
}

func (req loanRequest) toLoan() (finance.LoanDetails, error) {
	var (
		loan finance.LoanDetails
		err  error
	)

	if loan.TotalLoan, err = httpx.Amount(req.TotalLoan, false); err != nil {
		return loan, fmt.Errorf("total_loan: %w", err)
	}

	if loan.EMIPerMonth, err = httpx.Amount(req.EMIPerMonth, true); err != nil {
		return loan, fmt.Errorf("emi_per_month: %w", err)
	}

	if loan.InterestRate, err = httpx.Amount(req.InterestRate, false); err != nil {
		return loan, fmt.Errorf("interest_rate: %w", err)
	}

	if loan.DownPayment, err = httpx.Amount(req.DownPayment, true); err != nil {
		return loan, fmt.Errorf("down_payment: %w", err)
	}

	loan.TotalInstallments = req.TotalInstallments
	loan.StartDate, _ = time.Parse(time.DateOnly, req.StartDate)

	return loan, nil
}

type vehicleRequest struct {
	Registration string       `json:"registration" validate:"required,max=20"`
	Make         string       `json:"make" validate:"max=60"`
	Model        string       `json:"model" validate:"max=60"`
	Year         int          `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	DriverID     *uuid.UUID   `json:"driver_id"`
	WeeklyRent   string       `json:"weekly_rent" validate:"required"`
	ImageURLs    []string     `json:"image_urls" validate:"omitempty,dive,url"`
	Loan         *loanRequest `json:"loan"`
}

func (req vehicleRequest) toParams() (vehicle.Params, error) {
	rent, err := httpx.Amount(req.WeeklyRent, false)
	if err != nil {
		return vehicle.Params{}, fmt.Errorf("weekly_rent: %w", err)
	}

	return vehicle.Params{
		Registration: req.Registration,
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		DriverID:     req.DriverID,
		WeeklyRent:   rent,
		ImageURLs:    req.ImageURLs,
	}, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}

	params, err := req.toParams()
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	var loan *finance.LoanDetails

	if req.Loan != nil {
		l, err := req.Loan.toLoan()
		if err != nil {
			httpx.Error(w, r, err)
			return
		}

		loan = &l
	}

	v, err := h.svc.Create(r.Context(), httpx.Session(r).CompanyID, params, loan)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toResponse(v))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.svc.List(r.Context(), httpx.Session(r).CompanyID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	resp := make([]vehicleResponse, len(vehicles))
	for i, v := range vehicles {
		resp[i] = toResponse(v)
	}

	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	v, err := h.svc.Get(r.Context(), httpx.Session(r).CompanyID, id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toResponse(v))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	var req vehicleRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}

	params, err := req.toParams()
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	v, err := h.svc.Update(r.Context(), httpx.Session(r).CompanyID, id, params)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toResponse(v))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), httpx.Session(r).CompanyID, id); err != nil {
		httpx.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setLoan(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	var req loanRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}

	loan, err := req.toLoan()
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	v, err := h.svc.SetLoan(r.Context(), httpx.Session(r).CompanyID, id, loan)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toResponse(v))
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	schedule, err := h.svc.Schedule(r.Context(), httpx.Session(r).CompanyID, id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toScheduleResponse(schedule))
}

func month(r *http.Request) (int, error) {
	m, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || m <= 0 {
		return 0, fmt.Errorf("%w: invalid month", httpx.ErrBadRequest)
	}

	return m, nil
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	m, err := month(r)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	e, err := h.svc.PayInstallment(r.Context(), httpx.Session(r).CompanyID, id, m, h.now().UTC())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toEntryResponse(*e))
}

func (h *Handler) undo(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	m, err := month(r)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	e, err := h.svc.UndoInstallment(r.Context(), httpx.Session(r).CompanyID, id, m)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toEntryResponse(*e))
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	ref := h.now().UTC()

	date, err := httpx.Date(r, "date")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	if date != nil {
		ref = *date
	}

	s, err := h.svc.Summary(r.Context(), httpx.Session(r).CompanyID, id, ref)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toSummaryResponse(s))
}

func (h *Handler) image(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	companyID := httpx.Session(r).CompanyID

	if _, err := h.svc.Get(r.Context(), companyID, id); err != nil {
		httpx.Error(w, r, err)
		return
	}

	url, err := httpx.Upload(r, h.uploader, media.KindVehicle)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	v, err := h.svc.AddImage(r.Context(), companyID, id, url)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toResponse(v))
}
