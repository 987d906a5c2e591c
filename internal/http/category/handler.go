package category

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/category"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	authhttp "github.com/MrJamesThe3rd/fleetdesk/internal/http/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/httpx"
)

type Handler struct {
	svc *category.Service
}

func NewHandler(svc *category.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/rules", h.list)
	r.Get("/suggest", h.suggest)
	r.With(authhttp.RequireRole(auth.RoleOperator)).Post("/rules", h.learn)
}

type learnRequest struct {
	Pattern  string           `json:"pattern" validate:"required,max=200"`
	Category finance.Category `json:"category" validate:"required"`
}

type ruleResponse struct {
	ID        uuid.UUID        `json:"id"`
	Pattern   string           `json:"pattern"`
	Category  finance.Category `json:"category"`
	CreatedAt time.Time        `json:"created_at"`
}

type suggestResponse struct {
	Category finance.Category `json:"category,omitempty"`
	Found    bool             `json:"found"`
}

func toResponse(rule *category.Rule) ruleResponse {
	return ruleResponse{
		ID:        rule.ID,
		Pattern:   rule.Pattern,
		Category:  rule.Category,
		CreatedAt: rule.CreatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.List(r.Context(), httpx.Session(r).CompanyID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	resp := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		resp = append(resp, toResponse(rule))
	}

	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}

	rule, err := h.svc.Learn(r.Context(), httpx.Session(r).CompanyID, req.Pattern, req.Category)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toResponse(rule))
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	c, found, err := h.svc.Suggest(r.Context(), httpx.Session(r).CompanyID, r.URL.Query().Get("description"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, suggestResponse{Category: c, Found: found})
}
