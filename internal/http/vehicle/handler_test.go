package vehicle_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	vehiclehttp "github.com/MrJamesThe3rd/fleetdesk/internal/http/vehicle"
	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
)

var (
	company = uuid.New()
	carID   = uuid.New()
)

type mocks struct {
	repo     *vehicle.MockRepository
	expenses *vehicle.MockExpenses
}

func newRouter(t *testing.T, role auth.Role) (http.Handler, mocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := mocks{
		repo:     vehicle.NewMockRepository(ctrl),
		expenses: vehicle.NewMockExpenses(ctrl),
	}

	svc := vehicle.NewService(m.repo, m.expenses, vehicle.NewMockPayments(ctrl), vehicle.NewMockRuleSource(ctrl), finance.NewAggregator(nil))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			session := &auth.Session{ID: uuid.New(), UserID: uuid.New(), CompanyID: company, Role: role}
			next.ServeHTTP(w, req.WithContext(auth.WithSession(req.Context(), session)))
		})
	})
	r.Route("/vehicles", vehiclehttp.NewHandler(svc, nil).Routes)

	return r, m
}

func financed() *vehicle.Vehicle {
	loan := finance.LoanDetails{
		TotalLoan:         decimal.NewFromInt(120000),
		OutstandingLoan:   decimal.NewFromInt(120000),
		EMIPerMonth:       decimal.NewFromInt(11000),
		InterestRate:      decimal.RequireFromString("0.10"),
		TotalInstallments: 12,
		StartDate:         time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	return &vehicle.Vehicle{ID: carID, CompanyID: company, Registration: "KA01AB1234", WeeklyRent: decimal.NewFromInt(3500), Loan: &loan}
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHandler_Get(t *testing.T) {
	type testCase struct {
		name       string
		path       string
		setupMock  func(m mocks)
		wantStatus int
		check      func(t *testing.T, body map[string]any)
	}

	tests := []testCase{
		{
			name: "Found",
			path: "/vehicles/" + carID.String(),
			setupMock: func(m mocks) {
				m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(financed(), nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "KA01AB1234", body["registration"])
				assert.Equal(t, "3500.00", body["weekly_rent"])

				loan := body["loan"].(map[string]any)
				assert.Equal(t, "120000.00", loan["outstanding_loan"])
				assert.Equal(t, "2024-01-31", loan["start_date"])
			},
		},
		{
			name:       "Invalid ID",
			path:       "/vehicles/not-a-uuid",
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "Not Found",
			path: "/vehicles/" + carID.String(),
			setupMock: func(m mocks) {
				m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(nil, vehicle.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "vehicle not found", body["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := newRouter(t, auth.RoleDriver)

			if tt.setupMock != nil {
				tt.setupMock(m)
			}

			rec := do(h, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.check != nil {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				tt.check(t, body)
			}
		})
	}
}

func TestHandler_Create(t *testing.T) {
	type testCase struct {
		name       string
		role       auth.Role
		body       string
		setupMock  func(m mocks)
		wantStatus int
	}

	tests := []testCase{
		{
			name: "With Loan",
			role: auth.RoleOperator,
			body: `{"registration":"ka01ab1234","weekly_rent":"3500","loan":{"total_loan":"120000","interest_rate":"0.10","total_installments":12,"start_date":"2024-01-31"}}`,
			setupMock: func(m mocks) {
				m.repo.EXPECT().
					CreateVehicle(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, v *vehicle.Vehicle) error {
						assert.Equal(t, company, v.CompanyID)
						assert.Equal(t, "KA01AB1234", v.Registration)
						require.NotNil(t, v.Loan)
						assert.Len(t, v.Loan.AmortizationSchedule, 12)
						v.ID = carID

						return nil
					})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "Missing Registration",
			role:       auth.RoleOperator,
			body:       `{"weekly_rent":"3500"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Bad Amount",
			role:       auth.RoleOperator,
			body:       `{"registration":"KA01AB1234","weekly_rent":"lots"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Invalid Loan",
			role:       auth.RoleOperator,
			body:       `{"registration":"KA01AB1234","weekly_rent":"3500","loan":{"total_loan":"-5","interest_rate":"0.10","total_installments":12,"start_date":"2024-01-31"}}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "Driver Forbidden",
			role:       auth.RoleDriver,
			body:       `{"registration":"KA01AB1234","weekly_rent":"3500"}`,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := newRouter(t, tt.role)

			if tt.setupMock != nil {
				tt.setupMock(m)
			}

			rec := do(h, http.MethodPost, "/vehicles", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_Schedule(t *testing.T) {
	t.Run("No Loan", func(t *testing.T) {
		h, m := newRouter(t, auth.RoleDriver)
		m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(&vehicle.Vehicle{ID: carID}, nil)

		rec := do(h, http.MethodGet, "/vehicles/"+carID.String()+"/schedule", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("Entries", func(t *testing.T) {
		h, m := newRouter(t, auth.RoleDriver)
		m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(financed(), nil)

		rec := do(h, http.MethodGet, "/vehicles/"+carID.String()+"/schedule", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var entries []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		require.Len(t, entries, 12)
		assert.Equal(t, "1000.00", entries[0]["interest"])
		assert.Equal(t, "2024-02-29", entries[1]["due_date"])
	})
}

func TestHandler_PayInstallment(t *testing.T) {
	t.Run("Paid", func(t *testing.T) {
		h, m := newRouter(t, auth.RoleOperator)
		m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(financed(), nil)
		m.repo.EXPECT().UpdateLoan(gomock.Any(), company, carID, gomock.Any()).Return(nil)
		m.expenses.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&expense.Expense{ID: uuid.New()}, nil)

		rec := do(h, http.MethodPost, "/vehicles/"+carID.String()+"/schedule/1/pay", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
		assert.Equal(t, true, entry["is_paid"])
		assert.NotEmpty(t, entry["editable_until"])
	})

	t.Run("Invalid Month", func(t *testing.T) {
		h, _ := newRouter(t, auth.RoleOperator)

		rec := do(h, http.MethodPost, "/vehicles/"+carID.String()+"/schedule/zero/pay", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Undo Locked", func(t *testing.T) {
		h, m := newRouter(t, auth.RoleOperator)
		v := financed()
		schedule, err := finance.BuildAmortizationSchedule(*v.Loan)
		require.NoError(t, err)

		v.Loan.AmortizationSchedule = schedule
		finance.MarkPaid(&v.Loan.AmortizationSchedule[0], time.Now().Add(-finance.EditWindow-time.Hour))
		m.repo.EXPECT().GetVehicle(gomock.Any(), company, carID).Return(v, nil)

		rec := do(h, http.MethodDelete, "/vehicles/"+carID.String()+"/schedule/1/pay", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandler_Delete_AdminOnly(t *testing.T) {
	h, _ := newRouter(t, auth.RoleOperator)

	rec := do(h, http.MethodDelete, "/vehicles/"+carID.String(), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	h, m := newRouter(t, auth.RoleAdmin)
	m.repo.EXPECT().DeleteVehicle(gomock.Any(), company, carID).Return(nil)

	rec = do(h, http.MethodDelete, "/vehicles/"+carID.String(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
