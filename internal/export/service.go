// Package export builds the per-vehicle report bundle: the expense list as
// CSV, a plain text financial summary and the receipts of the exported
// expenses downloaded next to them.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
)

const (
	ExpensesFile = "expenses.csv"
	SummaryFile  = "summary.txt"
	receiptsDir  = "receipts"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=export
type Expenses interface {
	List(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error)
}

type Vehicles interface {
	Get(ctx context.Context, companyID, id uuid.UUID) (*vehicle.Vehicle, error)
	Summary(ctx context.Context, companyID, id uuid.UUID, ref time.Time) (*finance.Summary, error)
}

// Item is an exported expense and the local path of its receipt, if any.
type Item struct {
	Expense  *expense.Expense
	FilePath string
}

type Report struct {
	Vehicle *vehicle.Vehicle
	Summary *finance.Summary
	Filter  Filter
	Items   []Item
}

type Filter struct {
	CompanyID uuid.UUID
	VehicleID uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}

type Service struct {
	expenses Expenses
	vehicles Vehicles
	client   *http.Client
	apiToken string
	now      func() time.Time
}

func NewService(expenses Expenses, vehicles Vehicles, apiToken string) *Service {
	return &Service{
		expenses: expenses,
		vehicles: vehicles,
		client:   &http.Client{Timeout: 30 * time.Second},
		apiToken: apiToken,
		now:      time.Now,
	}
}

// Export writes the report for one vehicle into outputDir. Rejected expenses
// are left out. The summary is computed as of the end of the range.
func (s *Service) Export(ctx context.Context, filter Filter, outputDir string) (*Report, error) {
	v, err := s.vehicles.Get(ctx, filter.CompanyID, filter.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("getting vehicle: %w", err)
	}

	ref := s.now()
	if filter.EndDate != nil {
		ref = *filter.EndDate
	}

	summary, err := s.vehicles.Summary(ctx, filter.CompanyID, filter.VehicleID, ref)
	if err != nil {
		return nil, fmt.Errorf("summarizing vehicle: %w", err)
	}

	expenses, err := s.expenses.List(ctx, expense.ListFilter{
		CompanyID:       filter.CompanyID,
		VehicleID:       &filter.VehicleID,
		ExcludeRejected: true,
		StartDate:       filter.StartDate,
		EndDate:         filter.EndDate,
	})
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}

	dir := filepath.Join(outputDir, receiptsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	report := &Report{
		Vehicle: v,
		Summary: summary,
		Filter:  filter,
		Items:   make([]Item, 0, len(expenses)),
	}

	for _, e := range expenses {
		item := Item{Expense: e}

		if e.ReceiptURL != "" {
			path, err := s.downloadReceipt(ctx, e, dir)
			if err != nil {
				return nil, fmt.Errorf("downloading receipt for expense %s: %w", e.ID, err)
			}

			item.FilePath = path
		}

		report.Items = append(report.Items, item)
	}

	if err := writeFile(filepath.Join(outputDir, ExpensesFile), func(w io.Writer) error {
		return WriteCSV(w, report.Items)
	}); err != nil {
		return nil, err
	}

	if err := writeFile(filepath.Join(outputDir, SummaryFile), func(w io.Writer) error {
		_, err := io.WriteString(w, SummaryText(report))
		return err
	}); err != nil {
		return nil, err
	}

	return report, nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}

	return nil
}

func (s *Service) downloadReceipt(ctx context.Context, e *expense.Expense, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.ReceiptURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	if s.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for url %s", resp.StatusCode, e.ReceiptURL)
	}

	path := filepath.Join(dir, filename(resp, e))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

func filename(resp *http.Response, e *expense.Expense) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name, ok := params["filename"]; ok && name != "" {
				return strings.ReplaceAll(filepath.Base(name), " ", "_")
			}
		}
	}

	ext := ".pdf"

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
			ext = exts[0]
		}
	}

	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, e.Description)

	// YYYYMMDD_Description.ext
	return fmt.Sprintf("%s_%s%s", e.Date.Format("20060102"), safe, ext)
}

var csvHeader = []string{"date", "description", "payment_type", "expense_type", "status", "amount", "receipt"}

// WriteCSV writes one row per item, amounts with two decimals.
func WriteCSV(w io.Writer, items []Item) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, item := range items {
		e := item.Expense

		receipt := ""
		if item.FilePath != "" {
			receipt = filepath.Join(receiptsDir, filepath.Base(item.FilePath))
		}

		if err := cw.Write([]string{
			e.Date.Format(time.DateOnly),
			e.Description,
			string(e.PaymentType),
			string(e.ExpenseType),
			string(e.Status),
			e.Amount.StringFixed(2),
			receipt,
		}); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// SummaryText renders the report header, the financial summary and one line
// per exported expense.
func SummaryText(r *Report) string {
	var sb strings.Builder

	v := r.Vehicle
	fmt.Fprintf(&sb, "Vehicle: %s", v.Registration)

	if name := strings.TrimSpace(v.Make + " " + v.Model); name != "" {
		fmt.Fprintf(&sb, " (%s)", name)
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Period: %s\n\n", period(r.Filter))

	if s := r.Summary; s != nil {
		fmt.Fprintf(&sb, "Total expenses:  %s\n", s.TotalExpenses.StringFixed(2))
		fmt.Fprintf(&sb, "Monthly average: %s\n", s.MonthlyAverage.StringFixed(2))
		fmt.Fprintf(&sb, "Total earnings:  %s\n", s.TotalEarnings.StringFixed(2))
		fmt.Fprintf(&sb, "Expense ratio:   %s%%\n\n", s.ExpenseRatio.StringFixed(2))

		t := s.CategoryTotals
		fmt.Fprintf(&sb, "Fuel:        %s\n", t.Fuel.StringFixed(2))
		fmt.Fprintf(&sb, "Maintenance: %s\n", t.Maintenance.StringFixed(2))
		fmt.Fprintf(&sb, "Insurance:   %s\n", t.Insurance.StringFixed(2))
		fmt.Fprintf(&sb, "Penalties:   %s\n", t.Penalties.StringFixed(2))
		fmt.Fprintf(&sb, "EMI:         %s\n", t.EMI.StringFixed(2))
		fmt.Fprintf(&sb, "Prepayments: %s\n", t.Prepayments.StringFixed(2))
		fmt.Fprintf(&sb, "Other:       %s\n", t.Other.StringFixed(2))
	}

	if v.Loan != nil {
		fmt.Fprintf(&sb, "\nOutstanding loan: %s of %s\n", v.Loan.OutstandingLoan.StringFixed(2), v.Loan.TotalLoan.StringFixed(2))
	}

	if len(r.Items) > 0 {
		sb.WriteString("\nExpenses:\n")
	}

	for _, item := range r.Items {
		e := item.Expense

		receipt := "no receipt"
		if item.FilePath != "" {
			receipt = filepath.Base(item.FilePath)
		}

		fmt.Fprintf(&sb, "* %s | %s | %s € | %s | %s\n",
			e.Date.Format(time.DateOnly), e.Description, e.Amount.StringFixed(2), e.Status, receipt)
	}

	return sb.String()
}

func period(f Filter) string {
	switch {
	case f.StartDate != nil && f.EndDate != nil:
		return f.StartDate.Format(time.DateOnly) + " to " + f.EndDate.Format(time.DateOnly)
	case f.StartDate != nil:
		return "from " + f.StartDate.Format(time.DateOnly)
	case f.EndDate != nil:
		return "until " + f.EndDate.Format(time.DateOnly)
	}

	return "all time"
}
