package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
)

// Suggester proposes a category for a bank description from learned rules.
//
//go:generate mockgen -source=service.go -destination=suggester_mock.go -package=importer
type Suggester interface {
	Suggest(ctx context.Context, companyID uuid.UUID, description string) (finance.Category, bool, error)
}

type Service struct {
	parsers   map[Format]Parser
	suggester Suggester
}

func NewService(parsers map[Format]Parser, suggester Suggester) *Service {
	return &Service{parsers: parsers, suggester: suggester}
}

type Target struct {
	CompanyID uuid.UUID
	VehicleID uuid.UUID
	DriverID  *uuid.UUID
}

// Result holds the drafts built from a statement. Credits are money coming
// in and are not expenses; they are only counted.
type Result struct {
	Drafts  []expense.CreateParams
	Credits int
}

func (s *Service) Formats() []Format {
	formats := make([]Format, 0, len(s.parsers))
	for f := range s.parsers {
		formats = append(formats, f)
	}

	slices.Sort(formats)

	return formats
}

// Drafts parses the statement and returns one pending expense per debit.
func (s *Service) Drafts(ctx context.Context, format Format, target Target, r io.Reader) (*Result, error) {
	parser, ok := s.parsers[format]
	if !ok {
		return nil, fmt.Errorf("unknown statement format: %s", format)
	}

	entries, err := parser.Parse(r)
	if err != nil {
		return nil, err
	}

	res := &Result{}

	for _, e := range entries {
		if !e.Amount.IsNegative() {
			res.Credits++
			continue
		}

		paymentType, expenseType := finance.PaymentExpenses, finance.ExpenseType("")
		if e.Kind != "" {
			paymentType, expenseType = expense.NormalizeLegacyType(e.Kind)
		}

		if paymentType == finance.PaymentExpenses && (expenseType == "" || expenseType == finance.ExpenseGeneral) {
			if suggested, ok := s.suggest(ctx, target.CompanyID, e.Description); ok {
				expenseType = suggested
			}
		}

		res.Drafts = append(res.Drafts, expense.CreateParams{
			CompanyID:      target.CompanyID,
			VehicleID:      target.VehicleID,
			DriverID:       target.DriverID,
			Amount:         e.Amount.Neg(),
			Description:    e.Description,
			RawDescription: e.Description,
			PaymentType:    paymentType,
			ExpenseType:    expenseType,
			Status:         expense.StatusPending,
			Date:           e.Date,
		})
	}

	return res, nil
}

var categoryTypes = map[finance.Category]finance.ExpenseType{
	finance.CategoryFuel:        finance.ExpenseFuel,
	finance.CategoryMaintenance: finance.ExpenseMaintenance,
	finance.CategoryInsurance:   finance.ExpenseInsurance,
	finance.CategoryPenalties:   finance.ExpensePenalties,
}

func (s *Service) suggest(ctx context.Context, companyID uuid.UUID, description string) (finance.ExpenseType, bool) {
	if s.suggester == nil {
		return "", false
	}

	c, ok, err := s.suggester.Suggest(ctx, companyID, description)
	if err != nil {
		slog.WarnContext(ctx, "category suggestion failed", "error", err)
		return "", false
	}

	if !ok {
		return "", false
	}

	t, ok := categoryTypes[c]

	return t, ok
}
