// Package app builds the service graph shared by the binaries.
package app

import (
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
	"github.com/MrJamesThe3rd/fleetdesk/internal/backend"
	"github.com/MrJamesThe3rd/fleetdesk/internal/category"
	"github.com/MrJamesThe3rd/fleetdesk/internal/config"
	"github.com/MrJamesThe3rd/fleetdesk/internal/driver"
	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/export"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/importer"
	"github.com/MrJamesThe3rd/fleetdesk/internal/importer/cgd"
	"github.com/MrJamesThe3rd/fleetdesk/internal/importer/fleet"
	"github.com/MrJamesThe3rd/fleetdesk/internal/payment"
	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
)

type Services struct {
	Auth       *auth.Service
	Categories *category.Service
	Drivers    *driver.Service
	Expenses   *expense.Service
	Payments   *payment.Service
	Vehicles   *vehicle.Service
	Importer   *importer.Service
	Export     *export.Service
}

// Options carries the optional collaborators. Sessions may be nil for
// binaries that never log users in; Publisher may be nil to disable events.
type Options struct {
	Sessions  auth.SessionStore
	Publisher expense.Publisher
}

func NewServices(cfg *config.Config, repos backend.Repositories, opts Options) (*Services, error) {
	rules, err := finance.LoadRulesFile(cfg.Finance.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("loading category rules: %w", err)
	}

	ttl := cfg.Auth.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	s := &Services{
		Auth:       auth.NewService(repos.Auth, opts.Sessions, cfg.Auth.JWTSecret, ttl),
		Categories: category.NewService(repos.Categories),
		Drivers:    driver.NewService(repos.Drivers),
		Expenses:   expense.NewService(repos.Expenses, opts.Publisher),
		Payments:   payment.NewService(repos.Payments),
	}

	s.Vehicles = vehicle.NewService(repos.Vehicles, s.Expenses, s.Payments, s.Categories, finance.NewAggregator(rules))
	s.Importer = importer.NewService(map[importer.Format]importer.Parser{
		importer.FormatCGD:   cgd.NewParser(),
		importer.FormatFleet: fleet.NewParser(),
	}, s.Categories)
	s.Export = export.NewService(s.Expenses, s.Vehicles, cfg.Media.Token)

	return s, nil
}
