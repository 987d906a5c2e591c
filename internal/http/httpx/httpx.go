// Package httpx holds the request decoding, response encoding and error
// mapping shared by the API handlers.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/category"
	"github.com/MrJamesThe3rd/fleetdesk/internal/driver"
	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/media"
	"github.com/MrJamesThe3rd/fleetdesk/internal/payment"
	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
)

var ErrBadRequest = errors.New("bad request")

var validate = validator.New(validator.WithRequiredStructEnabled())

var statuses = []struct {
	err    error
	status int
}{
	{ErrBadRequest, http.StatusBadRequest},
	{finance.ErrInvalidAmount, http.StatusBadRequest},
	{vehicle.ErrInvalidVehicle, http.StatusBadRequest},
	{expense.ErrInvalidExpense, http.StatusBadRequest},
	{payment.ErrInvalidPayment, http.StatusBadRequest},
	{driver.ErrInvalidDriver, http.StatusBadRequest},
	{auth.ErrInvalidUser, http.StatusBadRequest},
	{category.ErrInvalidRule, http.StatusBadRequest},
	{media.ErrUnsupportedType, http.StatusBadRequest},

	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrSessionExpired, http.StatusUnauthorized},
	{auth.ErrForbidden, http.StatusForbidden},

	{vehicle.ErrNotFound, http.StatusNotFound},
	{expense.ErrNotFound, http.StatusNotFound},
	{payment.ErrNotFound, http.StatusNotFound},
	{driver.ErrNotFound, http.StatusNotFound},
	{auth.ErrNotFound, http.StatusNotFound},

	{expense.ErrInvalidTransition, http.StatusConflict},
	{payment.ErrAlreadyPaid, http.StatusConflict},
	{vehicle.ErrInstallmentLocked, http.StatusConflict},
	{vehicle.ErrInstallmentState, http.StatusConflict},
	{media.ErrExists, http.StatusConflict},

	{finance.ErrInvalidLoan, http.StatusUnprocessableEntity},
	{vehicle.ErrNoLoan, http.StatusUnprocessableEntity},
}

// Status maps a service error to its HTTP status.
func Status(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return s.status
		}
	}

	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

// Error writes err as a JSON error body. Internal errors are logged and
// hidden from the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}

	JSON(w, status, errorResponse{Error: msg})
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Decode reads a JSON body into v and validates its struct tags.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	return nil
}

// ID parses the named URL parameter as a UUID.
func ID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", ErrBadRequest, name)
	}

	return id, nil
}

// Date parses an optional YYYY-MM-DD query parameter.
func Date(r *http.Request, name string) (*time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s", ErrBadRequest, name)
	}

	return &t, nil
}

// OptionalID parses an optional UUID query parameter.
func OptionalID(r *http.Request, name string) (*uuid.UUID, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s", ErrBadRequest, name)
	}

	return &id, nil
}

// Session returns the authenticated session. Routes behind the auth
// middleware always have one.
func Session(r *http.Request) *auth.Session {
	s := auth.SessionFrom(r.Context())
	if s == nil {
		return &auth.Session{}
	}

	return s
}

// Money formats an amount with two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Amount parses a request amount. An empty optional amount is zero.
func Amount(s string, optional bool) (decimal.Decimal, error) {
	if s == "" && optional {
		return decimal.Zero, nil
	}

	return finance.ParseAmount(s)
}

const maxUpload = 10 << 20

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, companyID uuid.UUID, kind media.Kind, name, contentType string, r io.Reader) (string, error)
}

// Upload stores the multipart "file" field of r.
func Upload(r *http.Request, u Uploader, kind media.Kind) (string, error) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return "", fmt.Errorf("%w: parsing form: %v", ErrBadRequest, err)
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		return "", fmt.Errorf("%w: reading file: %v", ErrBadRequest, err)
	}
	defer f.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		head := make([]byte, 512)
		n, _ := io.ReadFull(f, head)
		contentType = http.DetectContentType(head[:n])

		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("rewinding upload: %w", err)
		}
	}

	return u.Upload(r.Context(), Session(r).CompanyID, kind, header.Filename, contentType, f)
}
