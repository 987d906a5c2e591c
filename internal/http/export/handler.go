package export

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/export"
	expensehttp "github.com/MrJamesThe3rd/fleetdesk/internal/http/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/httpx"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.metadata)
	r.Post("/download", h.download)
}

type exportRequest struct {
	VehicleID uuid.UUID  `json:"vehicle_id" validate:"required"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

type exportMetadataResponse struct {
	VehicleID    uuid.UUID              `json:"vehicle_id"`
	Registration string                 `json:"registration"`
	Expenses     []expensehttp.Response `json:"expenses"`
	Summary      string                 `json:"summary"`
}

func (h *Handler) filter(r *http.Request) (export.Filter, error) {
	var req exportRequest
	if err := httpx.Decode(r, &req); err != nil {
		return export.Filter{}, err
	}

	return export.Filter{
		CompanyID: httpx.Session(r).CompanyID,
		VehicleID: req.VehicleID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}, nil
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	filter, err := h.filter(r)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	tmpDir, err := os.MkdirTemp("", "fleetdesk-export-*")
	if err != nil {
		httpx.Error(w, r, fmt.Errorf("creating export directory: %w", err))
		return
	}
	defer os.RemoveAll(tmpDir)

	report, err := h.svc.Export(r.Context(), filter, tmpDir)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	expenses := make([]expensehttp.Response, 0, len(report.Items))
	for _, item := range report.Items {
		expenses = append(expenses, expensehttp.ToResponse(item.Expense))
	}

	httpx.JSON(w, http.StatusOK, exportMetadataResponse{
		VehicleID:    report.Vehicle.ID,
		Registration: report.Vehicle.Registration,
		Expenses:     expenses,
		Summary:      export.SummaryText(report),
	})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	filter, err := h.filter(r)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	tmpDir, err := os.MkdirTemp("", "fleetdesk-export-*")
	if err != nil {
		httpx.Error(w, r, fmt.Errorf("creating export directory: %w", err))
		return
	}
	defer os.RemoveAll(tmpDir)

	report, err := h.svc.Export(r.Context(), filter, tmpDir)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"export_%s_%s.zip\"", report.Vehicle.Registration, time.Now().Format("20060102")))

	if err := writeZip(w, tmpDir); err != nil {
		slog.ErrorContext(r.Context(), "failed to create zip", "error", err)
	}
}

func writeZip(w io.Writer, dir string) error {
	zipWriter := zip.NewWriter(w)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		relPath, _ := filepath.Rel(dir, path)

		zf, err := zipWriter.Create(filepath.ToSlash(relPath))
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(zf, f)

		return err
	})
	if err != nil {
		return err
	}

	return zipWriter.Close()
}
