package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/fleetdesk/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/fleetdesk/internal/app"
	"github.com/MrJamesThe3rd/fleetdesk/internal/auth/redisstore"
	"github.com/MrJamesThe3rd/fleetdesk/internal/backend"
	"github.com/MrJamesThe3rd/fleetdesk/internal/config"
	"github.com/MrJamesThe3rd/fleetdesk/internal/logging"
)

type model struct {
	services *app.Services
	common   view.CommonModel

	currentView View

	loginView    view.LoginModel
	vehiclesView view.VehiclesModel
	reviewView   view.ReviewModel
	importView   view.ImportModel
	exportView   view.ExportModel
}

type View int

const (
	ViewLogin View = iota
	ViewMenu
	ViewVehicles
	ViewReview
	ViewImport
	ViewExport
)

func newModel(services *app.Services) model {
	return model{
		services:    services,
		currentView: ViewLogin,
		loginView:   view.NewLoginModel(services.Auth),
	}
}

func (m model) Init() tea.Cmd {
	return m.loginView.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.common.Width = msg.Width
		m.common.Height = msg.Height
	case view.LoggedInMsg:
		m.common.Session = msg.Session
		m.currentView = ViewMenu

		return m, nil
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			s := m.services

			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewVehicles
				m.vehiclesView = view.NewVehiclesModel(m.common, s.Vehicles)

				return m, m.vehiclesView.Init()
			case "2":
				m.currentView = ViewReview
				m.reviewView = view.NewReviewModel(m.common, s.Expenses, s.Categories)

				return m, m.reviewView.Init()
			case "3":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.common, s.Expenses, s.Importer, s.Vehicles)

				return m, m.importView.Init()
			case "4":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.common, s.Export, s.Vehicles)

				return m, m.exportView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewLogin:
		var newModel tea.Model
		newModel, cmd = m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)
	case ViewVehicles:
		var newModel tea.Model
		newModel, cmd = m.vehiclesView.Update(msg)
		m.vehiclesView = newModel.(view.VehiclesModel)
	case ViewReview:
		var newModel tea.Model
		newModel, cmd = m.reviewView.Update(msg)
		m.reviewView = newModel.(view.ReviewModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("Fleetdesk (%s, %s)\n\n", m.common.Session.Email, m.common.Session.Role) +
				"1. Vehicles & Loans\n" +
				"2. Review Expenses\n" +
				"3. Import Statement\n" +
				"4. Export Vehicle Report\n\n" +
				"q. Quit",
		)
	case ViewVehicles:
		return m.vehiclesView.View()
	case ViewReview:
		return m.reviewView.View()
	case ViewImport:
		return m.importView.View()
	case ViewExport:
		return m.exportView.View()
	}

	return "Unknown View"
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	f, err := tea.LogToFile("fleetdesk-tui.log", "")
	if err != nil {
		return err
	}
	defer f.Close()

	slog.SetDefault(logging.New(f, cfg.App.LogLevel, false, "tui"))

	ctx := context.Background()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening backend: %w", err)
	}
	defer store.Close()

	redisClient, err := redisstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	services, err := app.NewServices(cfg, store.Repositories, app.Options{Sessions: redisstore.New(redisClient)})
	if err != nil {
		return err
	}

	_, err = tea.NewProgram(newModel(services)).Run()

	return err
}

func main() {
	if err := run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
