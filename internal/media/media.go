// Package media stores receipt scans and vehicle photos in a GCS bucket and
// returns their public URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var (
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrExists          = errors.New("object already exists")
)

// Kind is the folder an upload is filed under.
type Kind string

const (
	KindReceipt Kind = "receipts"
	KindVehicle Kind = "vehicles"
)

var allowedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

type Uploader struct {
	client  *storage.Client
	bucket  string
	baseURL string
	newID   func() uuid.UUID
}

func NewUploader(client *storage.Client, bucket, baseURL string) *Uploader {
	return &Uploader{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		newID:   uuid.New,
	}
}

// Connect opens a storage client with application default credentials
// unless opts say otherwise.
func Connect(ctx context.Context, opts ...option.ClientOption) (*storage.Client, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return client, nil
}

func (u *Uploader) Close() error {
	if u.client == nil {
		return nil
	}

	return u.client.Close()
}

// Upload writes r to <company>/<kind>/<id>_<name>. Objects are never
// overwritten.
func (u *Uploader) Upload(ctx context.Context, companyID uuid.UUID, kind Kind, name, contentType string, r io.Reader) (string, error) {
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !allowedTypes[contentType] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}

	objectName := path.Join(companyID.String(), string(kind), u.newID().String()+"_"+safeName(name))

	w := u.client.Bucket(u.bucket).Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("uploading %s: %w", objectName, err)
	}

	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return "", fmt.Errorf("%w: %s", ErrExists, objectName)
		}

		return "", fmt.Errorf("finishing upload of %s: %w", objectName, err)
	}

	slog.InfoContext(ctx, "uploaded media", "object", objectName, "content_type", contentType)

	return u.baseURL + "/" + u.bucket + "/" + objectName, nil
}

func safeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}

	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			return r
		}

		return '_'
	}, name)
}
