package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/fleetdesk/internal/app"
	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
)

const passwordEnv = "FLEETCTL_PASSWORD"

type userOutput struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
}

func newUserCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(newUserCreateCommand(opts))

	return cmd
}

func newUserCreateCommand(opts *RootOptions) *cobra.Command {
	var (
		params auth.CreateUserParams
		role   string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user, and its company on first use",
		Long: `Create a user. The company is created when no company with that
name exists. The password is read from --password or ` + passwordEnv + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params.Role = auth.Role(role)
			if params.Password == "" {
				params.Password = os.Getenv(passwordEnv)
			}

			return opts.withServices(cmd.Context(), func(s *app.Services) error {
				u, err := s.Auth.CreateUser(cmd.Context(), params)
				if err != nil {
					return err
				}

				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), userOutput{ID: u.ID, CompanyID: u.CompanyID, Email: u.Email, Role: u.Role})
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %s %s in %s\n", u.Role, u.Email, params.CompanyName)

				return err
			})
		},
	}

	cmd.Flags().StringVar(&params.CompanyName, "company", "", "company name")
	cmd.Flags().StringVar(&params.Email, "email", "", "login email")
	cmd.Flags().StringVar(&params.Name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleOperator), "admin, operator or driver")
	cmd.Flags().StringVar(&params.Password, "password", "", "password, at least 8 characters")

	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
