package export_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/export"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
)

func TestService_Export(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/receipt.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Disposition", `attachment; filename="oficina 123.pdf"`)
			w.Write([]byte("fake pdf content"))
		case "/receipt_no_filename":
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("fake pdf content"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	companyID, vehicleID := uuid.New(), uuid.New()
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	expenses := []*expense.Expense{
		{ID: uuid.New(), Amount: decimal.RequireFromString("180"), Description: "Brake pads", Status: expense.StatusApproved,
			PaymentType: finance.PaymentExpenses, ExpenseType: finance.ExpenseMaintenance, Date: date, ReceiptURL: ts.URL + "/receipt.pdf"},
		{ID: uuid.New(), Amount: decimal.RequireFromString("52.3"), Description: "Diesel refill", Status: expense.StatusPending,
			PaymentType: finance.PaymentExpenses, Date: date, ReceiptURL: ts.URL + "/receipt_no_filename"},
		{ID: uuid.New(), Amount: decimal.RequireFromString("20"), Description: "Car wash", Status: expense.StatusApproved,
			PaymentType: finance.PaymentExpenses, Date: date},
	}

	ctrl := gomock.NewController(t)
	exp := export.NewMockExpenses(ctrl)
	veh := export.NewMockVehicles(ctrl)

	veh.EXPECT().Get(gomock.Any(), companyID, vehicleID).Return(&vehicle.Vehicle{ID: vehicleID, Registration: "AA-00-BB", Make: "Toyota", Model: "Corolla"}, nil)
	veh.EXPECT().Summary(gomock.Any(), companyID, vehicleID, end).Return(&finance.Summary{
		TotalExpenses: decimal.RequireFromString("252.3"),
	}, nil)
	exp.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f expense.ListFilter) ([]*expense.Expense, error) {
			assert.True(t, f.ExcludeRejected)
			assert.Equal(t, vehicleID, *f.VehicleID)
			assert.Equal(t, end, *f.EndDate)

			return expenses, nil
		})

	dir := t.TempDir()

	report, err := export.NewService(exp, veh, "test-token").Export(context.Background(), export.Filter{
		CompanyID: companyID,
		VehicleID: vehicleID,
		EndDate:   &end,
	}, dir)
	require.NoError(t, err)
	require.Len(t, report.Items, 3)

	assert.Equal(t, "oficina_123.pdf", filepath.Base(report.Items[0].FilePath))
	assert.Equal(t, "20240304_Diesel_refill.pdf", filepath.Base(report.Items[1].FilePath))
	assert.Empty(t, report.Items[2].FilePath)

	content, err := os.ReadFile(report.Items[0].FilePath)
	require.NoError(t, err)
	assert.Equal(t, "fake pdf content", string(content))

	csvContent, err := os.ReadFile(filepath.Join(dir, export.ExpensesFile))
	require.NoError(t, err)
	assert.Contains(t, string(csvContent), "2024-03-04,Brake pads,expenses,maintenance,approved,180.00,receipts/oficina_123.pdf\n")
	assert.Contains(t, string(csvContent), "2024-03-04,Car wash,expenses,,approved,20.00,\n")

	summary, err := os.ReadFile(filepath.Join(dir, export.SummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Vehicle: AA-00-BB (Toyota Corolla)")
	assert.Contains(t, string(summary), "Period: until 2024-03-31")
	assert.Contains(t, string(summary), "Total expenses:  252.30")
}

func TestService_Export_ReceiptFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	ctrl := gomock.NewController(t)
	exp := export.NewMockExpenses(ctrl)
	veh := export.NewMockVehicles(ctrl)

	veh.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(&vehicle.Vehicle{}, nil)
	veh.EXPECT().Summary(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&finance.Summary{}, nil)
	exp.EXPECT().List(gomock.Any(), gomock.Any()).Return([]*expense.Expense{
		{ID: uuid.New(), Description: "x", ReceiptURL: ts.URL + "/gone"},
	}, nil)

	_, err := export.NewService(exp, veh, "").Export(context.Background(), export.Filter{}, t.TempDir())
	assert.ErrorContains(t, err, "unexpected status code 404")
}

func TestSummaryText(t *testing.T) {
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	report := &export.Report{
		Vehicle: &vehicle.Vehicle{
			Registration: "AA-00-BB",
			Loan: &finance.LoanDetails{
				TotalLoan:       decimal.NewFromInt(120000),
				OutstandingLoan: decimal.NewFromInt(110000),
			},
		},
		Summary: &finance.Summary{
			TotalExpenses: decimal.NewFromInt(2280),
			TotalEarnings: decimal.NewFromInt(4560),
			ExpenseRatio:  decimal.NewFromInt(50),
			CategoryTotals: finance.CategoryTotals{
				Fuel: decimal.NewFromInt(500),
			},
		},
		Filter: export.Filter{StartDate: &start, EndDate: &end},
		Items: []export.Item{
			{Expense: &expense.Expense{Date: date, Amount: decimal.RequireFromString("12.5"), Description: "Parking", Status: expense.StatusApproved}, FilePath: "/tmp/receipts/ticket.pdf"},
			{Expense: &expense.Expense{Date: date, Amount: decimal.NewFromInt(5), Description: "Water", Status: expense.StatusPending}},
		},
	}

	body := export.SummaryText(report)

	for _, want := range []string{
		"Vehicle: AA-00-BB\n",
		"Period: 2024-03-01 to 2024-03-31",
		"Expense ratio:   50.00%",
		"Fuel:        500.00",
		"Outstanding loan: 110000.00 of 120000.00",
		"* 2024-03-04 | Parking | 12.50 € | approved | ticket.pdf",
		"* 2024-03-04 | Water | 5.00 € | pending | no receipt",
	} {
		assert.Contains(t, body, want)
	}
}

func TestWriteCSV_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, nil))
	assert.Equal(t, "date,description,payment_type,expense_type,status,amount,receipt\n", buf.String())
}
