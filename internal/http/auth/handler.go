package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/httpx"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers the public login route. Logout and me need a session and
// are registered by PrivateRoutes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/login", h.login)
}

func (h *Handler) PrivateRoutes(r chi.Router) {
	r.Post("/logout", h.logout)
	r.Get("/me", h.me)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CompanyID uuid.UUID `json:"company_id"`
	Role      auth.Role `json:"role"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Session sessionResponse `json:"session"`
}

func toSessionResponse(s *auth.Session) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		CompanyID: s.CompanyID,
		Role:      s.Role,
		Email:     s.Email,
		Name:      s.Name,
		ExpiresAt: s.ExpiresAt,
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}

	token, session, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, loginResponse{Token: token, Session: toSessionResponse(session)})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), httpx.Session(r).ID); err != nil {
		httpx.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, toSessionResponse(httpx.Session(r)))
}

// Middleware loads the session for the bearer token and stores it in the
// request context.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httpx.Error(w, r, auth.ErrInvalidCredentials)
			return
		}

		session, err := h.svc.Authenticate(r.Context(), token)
		if err != nil {
			httpx.Error(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
	})
}

// RequireRole rejects sessions whose role ranks below min.
func RequireRole(min auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := auth.SessionFrom(r.Context())
			if s == nil || !s.Role.Can(min) {
				httpx.Error(w, r, auth.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
