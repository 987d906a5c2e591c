package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/fleetdesk/internal/export"
	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
)

type exportState int

const (
	exportStateVehicle exportState = iota
	exportStateTimeframe
	exportStatePath
	exportStateExporting
	exportStateResult
)

// ExportModel writes the expense report of one vehicle to a directory.
type ExportModel struct {
	CommonModel
	exportService *export.Service

	state           exportState
	err             error
	vehiclePicker   VehiclePicker
	vehicle         *vehicle.Vehicle
	timeframePicker TimeframePicker

	startDate time.Time
	endDate   time.Time
	allTime   bool

	form    *huh.Form
	path    *string
	spinner spinner.Model
	summary string
}

func NewExportModel(common CommonModel, svc *export.Service, vehicles *vehicle.Service) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ExportModel{
		CommonModel:     common,
		exportService:   svc,
		state:           exportStateVehicle,
		vehiclePicker:   NewVehiclePicker(vehicles, common.company()),
		timeframePicker: NewTimeframePicker(TimeframeThisMonth),
		path:            new(string),
		spinner:         s,
	}
}

func (m ExportModel) Title() string { return "Export Vehicle Report" }

func (m ExportModel) ShortHelp() string {
	switch m.state {
	case exportStateResult:
		return "Esc: back to menu"
	case exportStateExporting:
		return "Exporting..."
	}
	return "Esc: back | Enter: confirm"
}

func (m ExportModel) Init() tea.Cmd {
	return m.vehiclePicker.Init()
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if vMsg, ok := msg.(VehicleSelectedMsg); ok {
		m.vehicle = vMsg.Vehicle
		*m.path = "./exports/" + vMsg.Vehicle.Registration
		m.state = exportStateTimeframe

		return m, nil
	}

	if tfMsg, ok := msg.(TimeframeSelectedMsg); ok {
		m.startDate = tfMsg.Start
		m.endDate = tfMsg.End
		m.allTime = tfMsg.All
		m.form = m.buildPathForm()
		m.state = exportStatePath
		return m, m.form.Init()
	}

	switch m.state {
	case exportStateVehicle:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}

		var cmd tea.Cmd
		m.vehiclePicker, cmd = m.vehiclePicker.Update(msg)

		return m, cmd
	case exportStateTimeframe:
		return m.updateTimeframe(msg)
	case exportStatePath:
		return m.updatePath(msg)
	case exportStateExporting:
		return m.updateExporting(msg)
	case exportStateResult:
		return m.updateResult(msg)
	}

	return m, nil
}

func (m ExportModel) updateTimeframe(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			m.state = exportStateVehicle
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.timeframePicker, cmd = m.timeframePicker.Update(msg)
	return m, cmd
}

func (m ExportModel) updatePath(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = exportStateTimeframe
			m.timeframePicker.Reset()
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = exportStateExporting
	m.err = nil
	return m, tea.Batch(m.spinner.Tick, m.runExportCmd(m.startDate, m.endDate, *m.path))
}

func (m ExportModel) updateExporting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(exportResultMsg); ok {
		m.state = exportStateResult
		if result.err != nil {
			m.err = result.err
		}
		m.summary = result.body
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m ExportModel) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}
	return m, nil
}

func (m ExportModel) buildPathForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Output Path").
				Description("Directory will be created if it doesn't exist").
				Placeholder("./exports").
				Value(m.path),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) View() string {
	switch m.state {
	case exportStateVehicle:
		return pad.Render(m.vehiclePicker.View())

	case exportStateTimeframe:
		return pad.Render("Vehicle: " + m.vehicle.Registration + "\n\n" + m.timeframePicker.View())

	case exportStatePath:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case exportStateExporting:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Exporting expenses and downloading receipts...", m.spinner.View()),
		)

	case exportStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ExportModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(
			errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n(Esc to go back)",
		)
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("46")).
		Render("Export Complete!")

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			"Summary:",
			"",
			m.summary,
		),
	)
}

type exportResultMsg struct {
	body string
	err  error
}

const exportTimeout = 2 * time.Minute

func (m ExportModel) runExportCmd(start, end time.Time, path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		filter := export.Filter{CompanyID: m.company(), VehicleID: m.vehicle.ID}
		if !m.allTime {
			filter.StartDate = &start
			filter.EndDate = &end
		}

		report, err := m.exportService.Export(ctx, filter, path)
		if err != nil {
			return exportResultMsg{err: err}
		}

		return exportResultMsg{body: export.SummaryText(report)}
	}
}
