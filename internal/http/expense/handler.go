package expense

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	authhttp "github.com/MrJamesThe3rd/fleetdesk/internal/http/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/httpx"
	"github.com/MrJamesThe3rd/fleetdesk/internal/media"
)

type Handler struct {
	svc      *expense.Service
	uploader httpx.Uploader
}

// NewHandler builds the expense handler. Receipt uploads are only routed when
// uploader is set.
func NewHandler(svc *expense.Service, uploader httpx.Uploader) *Handler {
	return &Handler{svc: svc, uploader: uploader}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)

	if h.uploader != nil {
		r.Post("/{id}/receipt", h.receipt)
	}

	r.With(authhttp.RequireRole(auth.RoleOperator)).Patch("/{id}/status", h.review)
}

type reviewRequest struct {
	Status expense.Status `json:"status" validate:"required,oneof=approved rejected"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req Params
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}

	params, err := req.CreateParams(httpx.Session(r).CompanyID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	e, err := h.svc.Create(r.Context(), params)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, ToResponse(e))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := expense.ListFilter{CompanyID: httpx.Session(r).CompanyID}

	var err error

	if filter.VehicleID, err = httpx.OptionalID(r, "vehicle_id"); err != nil {
		httpx.Error(w, r, err)
		return
	}

	if filter.StartDate, err = httpx.Date(r, "from"); err != nil {
		httpx.Error(w, r, err)
		return
	}

	if filter.EndDate, err = httpx.Date(r, "to"); err != nil {
		httpx.Error(w, r, err)
		return
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := expense.Status(s)

		switch status {
		case expense.StatusPending, expense.StatusApproved, expense.StatusRejected:
			filter.Status = &status
		default:
			httpx.Error(w, r, fmt.Errorf("%w: unknown status %q", httpx.ErrBadRequest, s))
			return
		}
	}

	expenses, err := h.svc.List(r.Context(), filter)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, ToResponses(expenses))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	e, err := h.svc.Get(r.Context(), httpx.Session(r).CompanyID, id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, ToResponse(e))
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	var req reviewRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}

	session := httpx.Session(r)

	e, err := h.svc.Review(r.Context(), session.CompanyID, id, req.Status, session.UserID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, ToResponse(e))
}

func (h *Handler) receipt(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	companyID := httpx.Session(r).CompanyID

	e, err := h.svc.Get(r.Context(), companyID, id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	url, err := httpx.Upload(r, h.uploader, media.KindReceipt)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	if err := h.svc.AttachReceipt(r.Context(), companyID, id, url); err != nil {
		httpx.Error(w, r, err)
		return
	}

	e.ReceiptURL = url

	httpx.JSON(w, http.StatusOK, ToResponse(e))
}
