package httpx_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/httpx"
	"github.com/MrJamesThe3rd/fleetdesk/internal/media"
	"github.com/MrJamesThe3rd/fleetdesk/internal/payment"
	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
)

func TestStatus(t *testing.T) {
	type testCase struct {
		name string
		err  error
		want int
	}

	tests := []testCase{
		{name: "Bad Request", err: fmt.Errorf("%w: missing", httpx.ErrBadRequest), want: http.StatusBadRequest},
		{name: "Invalid Amount", err: fmt.Errorf("weekly_rent: %w", finance.ErrInvalidAmount), want: http.StatusBadRequest},
		{name: "Credentials", err: auth.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{name: "Forbidden", err: auth.ErrForbidden, want: http.StatusForbidden},
		{name: "Not Found", err: fmt.Errorf("getting vehicle: %w", vehicle.ErrNotFound), want: http.StatusNotFound},
		{name: "Transition", err: expense.ErrInvalidTransition, want: http.StatusConflict},
		{name: "Already Paid", err: payment.ErrAlreadyPaid, want: http.StatusConflict},
		{name: "Object Exists", err: media.ErrExists, want: http.StatusConflict},
		{name: "No Loan", err: vehicle.ErrNoLoan, want: http.StatusUnprocessableEntity},
		{name: "Unknown", err: errors.New("db down"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, httpx.Status(tt.err))
		})
	}
}

func TestError_HidesInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	httpx.Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), expense.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"expense not found"}`, rec.Body.String())
}

func TestDecode(t *testing.T) {
	type payload struct {
		Name  string `json:"name" validate:"required"`
		Email string `json:"email" validate:"omitempty,email"`
	}

	type testCase struct {
		name    string
		body    string
		wantErr bool
	}

	tests := []testCase{
		{name: "Valid", body: `{"name":"Ana","email":"ana@fleet.example"}`},
		{name: "Malformed", body: `{"name":`, wantErr: true},
		{name: "Missing Required", body: `{"email":"ana@fleet.example"}`, wantErr: true},
		{name: "Invalid Email", body: `{"name":"Ana","email":"ana"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := httpx.Decode(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)), &p)

			if tt.wantErr {
				assert.ErrorIs(t, err, httpx.ErrBadRequest)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Ana", p.Name)
		})
	}
}

func TestQueryParams(t *testing.T) {
	id := uuid.New()
	r := httptest.NewRequest(http.MethodGet, "/?vehicle_id="+id.String()+"&from=2024-03-01&to=bad", nil)

	got, err := httpx.OptionalID(r, "vehicle_id")
	require.NoError(t, err)
	assert.Equal(t, id, *got)

	none, err := httpx.OptionalID(r, "driver_id")
	require.NoError(t, err)
	assert.Nil(t, none)

	from, err := httpx.Date(r, "from")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", from.Format("2006-01-02"))

	_, err = httpx.Date(r, "to")
	assert.ErrorIs(t, err, httpx.ErrBadRequest)
}

func TestAmount(t *testing.T) {
	d, err := httpx.Amount("", true)
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = httpx.Amount("", false)
	assert.ErrorIs(t, err, finance.ErrInvalidAmount)

	d, err = httpx.Amount("1.234,5", false)
	require.NoError(t, err)
	assert.Equal(t, "1234.50", httpx.Money(d))
}

type recordingUploader struct {
	companyID   uuid.UUID
	kind        media.Kind
	name        string
	contentType string
	body        []byte
}

func (u *recordingUploader) Upload(_ context.Context, companyID uuid.UUID, kind media.Kind, name, contentType string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	u.companyID, u.kind, u.name, u.contentType, u.body = companyID, kind, name, contentType, b

	return "https://cdn.example/" + name, nil
}

func TestUpload(t *testing.T) {
	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "receipt.png")
	require.NoError(t, err)

	png := []byte("\x89PNG\r\n\x1a\n0000")
	_, err = fw.Write(png)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	company := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = req.WithContext(auth.WithSession(req.Context(), &auth.Session{CompanyID: company}))

	u := &recordingUploader{}

	url, err := httpx.Upload(req, u, media.KindReceipt)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/receipt.png", url)
	assert.Equal(t, company, u.companyID)
	assert.Equal(t, media.KindReceipt, u.kind)
	assert.Equal(t, "image/png", u.contentType)
	assert.Equal(t, png, u.body)
}

func TestUpload_MissingFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")

	_, err := httpx.Upload(req, &recordingUploader{}, media.KindReceipt)
	assert.ErrorIs(t, err, httpx.ErrBadRequest)
}
