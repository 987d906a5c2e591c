package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
)

type scheduleFlags struct {
	total        string
	emi          string
	rate         string
	installments int
	start        string
}

type entryOutput struct {
	Month       int    `json:"month"`
	DueDate     string `json:"due_date"`
	Interest    string `json:"interest"`
	Principal   string `json:"principal"`
	Outstanding string `json:"outstanding"`
}

func newScheduleCommand(opts *RootOptions) *cobra.Command {
	var f scheduleFlags

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the amortization schedule of a loan",
		Long: `Print the month-by-month amortization schedule for the given loan terms.
The EMI is derived from the rate when --emi is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loan, err := f.loan()
			if err != nil {
				return err
			}

			schedule, err := finance.BuildAmortizationSchedule(loan)
			if err != nil {
				return err
			}

			if opts.Format == "json" {
				out := make([]entryOutput, len(schedule))
				for i, e := range schedule {
					out[i] = entryOutput{
						Month:       e.Month,
						DueDate:     e.DueDate.Format(time.DateOnly),
						Interest:    e.Interest.StringFixed(2),
						Principal:   e.Principal.StringFixed(2),
						Outstanding: e.Outstanding.StringFixed(2),
					}
				}

				return writeJSON(cmd.OutOrStdout(), out)
			}

			return writeSchedule(cmd.OutOrStdout(), loan, schedule)
		},
	}

	cmd.Flags().StringVar(&f.total, "total", "", "total loan amount")
	cmd.Flags().StringVar(&f.emi, "emi", "", "monthly installment")
	cmd.Flags().StringVar(&f.rate, "rate", "0", "annual interest rate, 0.10 is 10%")
	cmd.Flags().IntVar(&f.installments, "installments", 0, "number of monthly installments")
	cmd.Flags().StringVar(&f.start, "start", "", "due date of the first installment, YYYY-MM-DD")

	_ = cmd.MarkFlagRequired("total")
	_ = cmd.MarkFlagRequired("installments")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func (f scheduleFlags) loan() (finance.LoanDetails, error) {
	var (
		loan finance.LoanDetails
		err  error
	)

	if loan.TotalLoan, err = finance.ParseAmount(f.total); err != nil {
		return loan, fmt.Errorf("--total: %w", err)
	}

	if loan.InterestRate, err = finance.ParseAmount(f.rate); err != nil {
		return loan, fmt.Errorf("--rate: %w", err)
	}

	if loan.StartDate, err = time.Parse(time.DateOnly, f.start); err != nil {
		return loan, fmt.Errorf("--start: %w", err)
	}

	loan.TotalInstallments = f.installments

	if f.emi == "" {
		loan.EMIPerMonth = finance.ComputeEMI(loan.TotalLoan, loan.InterestRate, loan.TotalInstallments)
	} else if loan.EMIPerMonth, err = finance.ParseAmount(f.emi); err != nil {
		return loan, fmt.Errorf("--emi: %w", err)
	}

	return loan, nil
}

func writeSchedule(w io.Writer, loan finance.LoanDetails, schedule []finance.ScheduleEntry) error {
	_, err := fmt.Fprintf(w, "Loan %s at %s%% over %d months, EMI %s\n",
		loan.TotalLoan.StringFixed(2),
		loan.InterestRate.Mul(decimal.NewFromInt(100)).StringFixed(2),
		loan.TotalInstallments,
		loan.EMIPerMonth.StringFixed(2),
	)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MONTH\tDUE\tINTEREST\tPRINCIPAL\tOUTSTANDING")

	interest := decimal.Zero

	for _, e := range schedule {
		interest = interest.Add(e.Interest)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.Month,
			e.DueDate.Format(time.DateOnly),
			e.Interest.StringFixed(2),
			e.Principal.StringFixed(2),
			e.Outstanding.StringFixed(2),
		)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "Total interest: %s\n", interest.StringFixed(2))

	return err
}
