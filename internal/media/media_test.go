package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newFakeGCS(t *testing.T, handler http.Handler) *storage.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := storage.NewClient(
		context.Background(),
		option.WithoutAuthentication(),
		option.WithEndpoint(server.URL),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	return client
}

func TestUploader_Upload(t *testing.T) {
	var calls int

	client := newFakeGCS(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++

		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "0", r.URL.Query().Get("ifGenerationMatch"))
			w.Header().Set("Location", "/upload-session")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("{}"))
		case http.MethodPut:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("{}"))
		default:
			t.Errorf("unexpected call: %s %s", r.Method, r.URL.Path)
		}
	}))

	companyID := uuid.MustParse("7b0c1e1a-0000-4000-8000-000000000001")
	fixed := uuid.MustParse("00000000-0000-4000-8000-0000000000aa")

	u := NewUploader(client, "fleet-media", "https://storage.googleapis.com/")
	u.newID = func() uuid.UUID { return fixed }

	url, err := u.Upload(context.Background(), companyID, KindReceipt, "../oficina 12.pdf", "application/pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)

	assert.Equal(t,
		"https://storage.googleapis.com/fleet-media/7b0c1e1a-0000-4000-8000-000000000001/receipts/00000000-0000-4000-8000-0000000000aa_oficina_12.pdf",
		url)
	assert.Positive(t, calls)
}

func TestUploader_Upload_Exists(t *testing.T) {
	client := newFakeGCS(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPreconditionFailed)
		_, _ = w.Write([]byte(`{"error":{"code":412,"message":"conditionNotMet"}}`))
	}))

	u := NewUploader(client, "fleet-media", "https://storage.googleapis.com")

	_, err := u.Upload(context.Background(), uuid.New(), KindVehicle, "front.jpg", "image/jpeg", strings.NewReader("jpeg"))
	assert.ErrorIs(t, err, ErrExists)
}

func TestUploader_Upload_UnsupportedType(t *testing.T) {
	u := NewUploader(nil, "fleet-media", "")

	_, err := u.Upload(context.Background(), uuid.New(), KindVehicle, "notes.txt", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"front.jpg":             "front.jpg",
		"../../etc/passwd":      "passwd",
		`C:\scans\fatura 1.pdf`: "fatura_1.pdf",
		"":                      "upload",
	}

	for in, want := range tests {
		assert.Equal(t, want, safeName(in), in)
	}
}
