package driver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/driver"
	authhttp "github.com/MrJamesThe3rd/fleetdesk/internal/http/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/httpx"
)

type Handler struct {
	svc *driver.Service
}

func NewHandler(svc *driver.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(authhttp.RequireRole(auth.RoleOperator))

		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Put("/{id}/active", h.setActive)
	})
}

type driverRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	Email         string `json:"email" validate:"omitempty,email"`
	Phone         string `json:"phone" validate:"omitempty,max=30"`
	LicenseNumber string `json:"license_number" validate:"omitempty,max=40"`
}

func (req driverRequest) params() driver.Params {
	return driver.Params{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		LicenseNumber: req.LicenseNumber,
	}
}

type activeRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type driverResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	LicenseNumber string     `json:"license_number,omitempty"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

func toResponse(d *driver.Driver) driverResponse {
	return driverResponse{
		ID:            d.ID,
		Name:          d.Name,
		Email:         d.Email,
		Phone:         d.Phone,
		LicenseNumber: d.LicenseNumber,
		Active:        d.Active,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req driverRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}

	d, err := h.svc.Create(r.Context(), httpx.Session(r).CompanyID, req.params())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toResponse(d))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	drivers, err := h.svc.List(r.Context(), httpx.Session(r).CompanyID, activeOnly)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	resp := make([]driverResponse, 0, len(drivers))
	for _, d := range drivers {
		resp = append(resp, toResponse(d))
	}

	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	d, err := h.svc.Get(r.Context(), httpx.Session(r).CompanyID, id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toResponse(d))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	var req driverRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}

	d, err := h.svc.Update(r.Context(), httpx.Session(r).CompanyID, id, req.params())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toResponse(d))
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	var req activeRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}

	d, err := h.svc.SetActive(r.Context(), httpx.Session(r).CompanyID, id, *req.Active)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, toResponse(d))
}
