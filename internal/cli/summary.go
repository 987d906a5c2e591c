package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/fleetdesk/internal/app"
	"github.com/MrJamesThe3rd/fleetdesk/internal/export"
)

type summaryOutput struct {
	VehicleID      uuid.UUID         `json:"vehicle_id"`
	Registration   string            `json:"registration"`
	TotalExpenses  string            `json:"total_expenses"`
	MonthlyAverage string            `json:"monthly_average"`
	TotalEarnings  string            `json:"total_earnings"`
	ExpenseRatio   string            `json:"expense_ratio"`
	Categories     map[string]string `json:"categories"`
}

func newSummaryCommand(opts *RootOptions) *cobra.Command {
	var company, vehicleID, date string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the financial summary of a vehicle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			companyID, err := uuid.Parse(company)
			if err != nil {
				return fmt.Errorf("--company: %w", err)
			}

			id, err := uuid.Parse(vehicleID)
			if err != nil {
				return fmt.Errorf("--vehicle: %w", err)
			}

			ref := time.Now().UTC()
			if date != "" {
				if ref, err = time.Parse(time.DateOnly, date); err != nil {
					return fmt.Errorf("--date: %w", err)
				}
			}

			return opts.withServices(cmd.Context(), func(s *app.Services) error {
				v, err := s.Vehicles.Get(cmd.Context(), companyID, id)
				if err != nil {
					return err
				}

				summary, err := s.Vehicles.Summary(cmd.Context(), companyID, id, ref)
				if err != nil {
					return err
				}

				if opts.Format == "json" {
					t := summary.CategoryTotals

					return writeJSON(cmd.OutOrStdout(), summaryOutput{
						VehicleID:      v.ID,
						Registration:   v.Registration,
						TotalExpenses:  summary.TotalExpenses.StringFixed(2),
						MonthlyAverage: summary.MonthlyAverage.StringFixed(2),
						TotalEarnings:  summary.TotalEarnings.StringFixed(2),
						ExpenseRatio:   summary.ExpenseRatio.StringFixed(2),
						Categories: map[string]string{
							"fuel":        t.Fuel.StringFixed(2),
							"maintenance": t.Maintenance.StringFixed(2),
							"insurance":   t.Insurance.StringFixed(2),
							"penalties":   t.Penalties.StringFixed(2),
							"emi":         t.EMI.StringFixed(2),
							"prepayments": t.Prepayments.StringFixed(2),
							"other":       t.Other.StringFixed(2),
						},
					})
				}

				until := ref
				_, err = fmt.Fprint(cmd.OutOrStdout(), export.SummaryText(&export.Report{
					Vehicle: v,
					Summary: summary,
					Filter:  export.Filter{CompanyID: companyID, VehicleID: id, EndDate: &until},
				}))

				return err
			})
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "company ID")
	cmd.Flags().StringVar(&vehicleID, "vehicle", "", "vehicle ID")
	cmd.Flags().StringVar(&date, "date", "", "reference date, YYYY-MM-DD, today when empty")

	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("vehicle")

	return cmd
}
