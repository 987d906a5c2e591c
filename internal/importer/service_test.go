package importer_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/importer"
)

type stubParser struct {
	entries []importer.Entry
	err     error
}

func (p stubParser) Parse(io.Reader) ([]importer.Entry, error) {
	return p.entries, p.err
}

func TestService_Drafts(t *testing.T) {
	target := importer.Target{CompanyID: uuid.New(), VehicleID: uuid.New()}
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	type testCase struct {
		name        string
		entries     []importer.Entry
		setupMock   func(m *importer.MockSuggester)
		wantDrafts  int
		wantCredits int
		check       func(t *testing.T, drafts []expense.CreateParams)
	}

	tests := []testCase{
		{
			name: "Debits Become Pending Drafts",
			entries: []importer.Entry{
				{Date: day, Description: "GALP PORTO", Amount: decimal.RequireFromString("-52.30")},
				{Date: day, Description: "TRF RENDA", Amount: decimal.RequireFromString("350")},
			},
			setupMock: func(m *importer.MockSuggester) {
				m.EXPECT().Suggest(gomock.Any(), target.CompanyID, "GALP PORTO").Return(finance.CategoryFuel, true, nil)
			},
			wantDrafts:  1,
			wantCredits: 1,
			check: func(t *testing.T, drafts []expense.CreateParams) {
				d := drafts[0]
				assert.Equal(t, "52.30", d.Amount.StringFixed(2))
				assert.Equal(t, expense.StatusPending, d.Status)
				assert.Equal(t, finance.PaymentExpenses, d.PaymentType)
				assert.Equal(t, finance.ExpenseFuel, d.ExpenseType)
				assert.Equal(t, "GALP PORTO", d.RawDescription)
				assert.Equal(t, target.VehicleID, d.VehicleID)
			},
		},
		{
			name: "Legacy Kind Wins",
			entries: []importer.Entry{
				{Date: day, Description: "Loan", Amount: decimal.RequireFromString("-900"), Kind: "EMI"},
			},
			wantDrafts: 1,
			check: func(t *testing.T, drafts []expense.CreateParams) {
				assert.Equal(t, finance.PaymentEMI, drafts[0].PaymentType)
				assert.Empty(t, drafts[0].ExpenseType)
			},
		},
		{
			name: "Suggestion Not Mapped To Expense Type",
			entries: []importer.Entry{
				{Date: day, Description: "BANCO PRESTACAO", Amount: decimal.RequireFromString("-900")},
			},
			setupMock: func(m *importer.MockSuggester) {
				m.EXPECT().Suggest(gomock.Any(), gomock.Any(), gomock.Any()).Return(finance.CategoryEMI, true, nil)
			},
			wantDrafts: 1,
			check: func(t *testing.T, drafts []expense.CreateParams) {
				assert.Empty(t, drafts[0].ExpenseType)
			},
		},
		{
			name: "Suggester Error Ignored",
			entries: []importer.Entry{
				{Date: day, Description: "SOMETHING", Amount: decimal.RequireFromString("-1")},
			},
			setupMock: func(m *importer.MockSuggester) {
				m.EXPECT().Suggest(gomock.Any(), gomock.Any(), gomock.Any()).Return(finance.Category(""), false, errors.New("db down"))
			},
			wantDrafts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			suggester := importer.NewMockSuggester(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(suggester)
			}

			svc := importer.NewService(map[importer.Format]importer.Parser{
				importer.FormatCGD: stubParser{entries: tt.entries},
			}, suggester)

			res, err := svc.Drafts(context.Background(), importer.FormatCGD, target, strings.NewReader(""))
			require.NoError(t, err)
			assert.Len(t, res.Drafts, tt.wantDrafts)
			assert.Equal(t, tt.wantCredits, res.Credits)

			if tt.check != nil {
				tt.check(t, res.Drafts)
			}
		})
	}
}

func TestService_Drafts_Errors(t *testing.T) {
	svc := importer.NewService(map[importer.Format]importer.Parser{
		importer.FormatFleet: stubParser{err: errors.New("bad file")},
	}, nil)

	_, err := svc.Drafts(context.Background(), importer.FormatCGD, importer.Target{}, strings.NewReader(""))
	assert.ErrorContains(t, err, "unknown statement format")

	_, err = svc.Drafts(context.Background(), importer.FormatFleet, importer.Target{}, strings.NewReader(""))
	assert.ErrorContains(t, err, "bad file")
}

func TestService_Formats(t *testing.T) {
	svc := importer.NewService(map[importer.Format]importer.Parser{
		importer.FormatFleet: stubParser{},
		importer.FormatCGD:   stubParser{},
	}, nil)

	assert.Equal(t, []importer.Format{importer.FormatCGD, importer.FormatFleet}, svc.Formats())
}
