package importcsv

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	expensehttp "github.com/MrJamesThe3rd/fleetdesk/internal/http/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/httpx"
	"github.com/MrJamesThe3rd/fleetdesk/internal/importer"
)

type Handler struct {
	importSvc  *importer.Service
	expenseSvc *expense.Service
}

func NewHandler(importSvc *importer.Service, expenseSvc *expense.Service) *Handler {
	return &Handler{
		importSvc:  importSvc,
		expenseSvc: expenseSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/formats", h.formats)
	r.Post("/", h.importCSV)
	r.Post("/confirm", h.confirmImport)
}

type importSuccessResponse struct {
	Imported int                    `json:"imported"`
	Credits  int                    `json:"credits_skipped"`
	Expenses []expensehttp.Response `json:"expenses"`
}

type conflictDTO struct {
	Incoming expensehttp.Params   `json:"incoming"`
	Existing expensehttp.Response `json:"existing"`
}

type importConflictResponse struct {
	New       []expensehttp.Params `json:"new"`
	Conflicts []conflictDTO        `json:"conflicts"`
	Credits   int                  `json:"credits_skipped"`
}

type confirmRequest struct {
	Params []expensehttp.Params `json:"params" validate:"required,dive"`
}

func (h *Handler) formats(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, h.importSvc.Formats())
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		httpx.Error(w, r, fmt.Errorf("%w: failed to parse form: %v", httpx.ErrBadRequest, err))
		return
	}

	format := importer.Format(r.FormValue("format"))
	if format == "" {
		httpx.Error(w, r, fmt.Errorf("%w: format field is required", httpx.ErrBadRequest))
		return
	}

	vehicleID, err := uuid.Parse(r.FormValue("vehicle_id"))
	if err != nil {
		httpx.Error(w, r, fmt.Errorf("%w: vehicle_id field is required", httpx.ErrBadRequest))
		return
	}

	target := importer.Target{CompanyID: httpx.Session(r).CompanyID, VehicleID: vehicleID}

	if s := r.FormValue("driver_id"); s != "" {
		driverID, err := uuid.Parse(s)
		if err != nil {
			httpx.Error(w, r, fmt.Errorf("%w: invalid driver_id", httpx.ErrBadRequest))
			return
		}

		target.DriverID = &driverID
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		httpx.Error(w, r, fmt.Errorf("%w: file field is required", httpx.ErrBadRequest))
		return
	}
	defer file.Close()

	drafts, err := h.importSvc.Drafts(r.Context(), format, target, file)
	if err != nil {
		httpx.Error(w, r, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}

	result, err := h.expenseSvc.ImportBatch(r.Context(), target.CompanyID, drafts.Drafts)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]expensehttp.Params, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
			Credits:   drafts.Credits,
		}
		for _, p := range result.New {
			resp.New = append(resp.New, expensehttp.ToParams(p))
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: expensehttp.ToParams(c.Incoming),
				Existing: expensehttp.ToResponse(c.Existing),
			})
		}

		httpx.JSON(w, http.StatusConflict, resp)

		return
	}

	httpx.JSON(w, http.StatusCreated, importSuccessResponse{
		Imported: len(result.Imported),
		Credits:  drafts.Credits,
		Expenses: expensehttp.ToResponses(result.Imported),
	})
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}

	companyID := httpx.Session(r).CompanyID

	params := make([]expense.CreateParams, 0, len(req.Params))
	for _, p := range req.Params {
		cp, err := p.CreateParams(companyID)
		if err != nil {
			httpx.Error(w, r, err)
			return
		}

		cp.Status = expense.StatusPending
		params = append(params, cp)
	}

	expenses, err := h.expenseSvc.CreateBatch(r.Context(), companyID, params)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, importSuccessResponse{
		Imported: len(expenses),
		Expenses: expensehttp.ToResponses(expenses),
	})
}
