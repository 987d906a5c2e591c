package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
)

type ruleOutput struct {
	Category finance.Category `json:"category"`
	Keywords []string         `json:"keywords"`
}

func newRulesCommand(opts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the keyword rules used to categorize expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, err := finance.LoadRulesFile(file)
			if err != nil {
				return err
			}

			if opts.Format == "json" {
				out := make([]ruleOutput, len(rules))
				for i, r := range rules {
					out[i] = ruleOutput{Category: r.Category, Keywords: r.Keywords}
				}

				return writeJSON(cmd.OutOrStdout(), out)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tKEYWORDS")

			for _, r := range rules {
				fmt.Fprintf(tw, "%s\t%s\n", r.Category, strings.Join(r.Keywords, ", "))
			}

			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML rules file, the built-in rules when empty")

	return cmd
}
