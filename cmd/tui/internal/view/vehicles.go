package view

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/fleetdesk/internal/export"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
)

type vehiclesState int

const (
	vehiclesStateBrowse vehiclesState = iota
	vehiclesStateSummary
	vehiclesStateSchedule
)

type VehiclesModel struct {
	CommonModel
	vehicles *vehicle.Service

	state    vehiclesState
	table    table.Model
	list     []*vehicle.Vehicle
	summary  string
	schedule table.Model
	entries  []finance.ScheduleEntry

	loading bool
	err     error
	status  string
}

func newTable(columns []table.Column, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func NewVehiclesModel(common CommonModel, svc *vehicle.Service) VehiclesModel {
	return VehiclesModel{
		CommonModel: common,
		vehicles:    svc,
		loading:     true,
		table: newTable([]table.Column{
			{Title: "Registration", Width: 14},
			{Title: "Vehicle", Width: 24},
			{Title: "Weekly Rent", Width: 12},
			{Title: "Loan", Width: 12},
			{Title: "Outstanding", Width: 12},
		}, 15),
		schedule: newTable([]table.Column{
			{Title: "#", Width: 4},
			{Title: "Due", Width: 12},
			{Title: "Interest", Width: 10},
			{Title: "Principal", Width: 10},
			{Title: "Outstanding", Width: 12},
			{Title: "Paid", Width: 12},
		}, 15),
	}
}

func (m VehiclesModel) Title() string { return "Vehicles" }

func (m VehiclesModel) ShortHelp() string {
	switch m.state {
	case vehiclesStateSummary:
		return "Esc: back"
	case vehiclesStateSchedule:
		return "Esc: back | p: pay selected | u: undo selected"
	}

	return "Esc: back | Enter: summary | s: schedule | r: refresh"
}

func (m VehiclesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m VehiclesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadVehiclesMsg:
		m.loading = false
		m.err = msg.err
		m.list = msg.vehicles
		m.refreshTable()

		return m, nil

	case summaryMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.summary = msg.body
		m.state = vehiclesStateSummary

		return m, nil

	case scheduleMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.entries = msg.entries
		m.refreshSchedule()
		m.state = vehiclesStateSchedule

		return m, nil

	case installmentMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}

		return m, m.scheduleCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		m.schedule.SetHeight(msg.Height - 10)

		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if ok && keyMsg.Type == tea.KeyEsc {
		if m.state == vehiclesStateBrowse {
			return m, Back
		}

		m.state = vehiclesStateBrowse
		m.status = ""

		return m, nil
	}

	switch m.state {
	case vehiclesStateBrowse:
		if ok {
			switch keyMsg.String() {
			case "r":
				m.loading = true
				return m, m.loadCmd()
			case "enter":
				return m, m.summaryCmd()
			case "s":
				return m, m.scheduleCmd()
			}
		}

		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)

		return m, cmd

	case vehiclesStateSchedule:
		if ok {
			switch keyMsg.String() {
			case "p":
				return m, m.installmentCmd(true)
			case "u":
				return m, m.installmentCmd(false)
			}
		}

		var cmd tea.Cmd
		m.schedule, cmd = m.schedule.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m VehiclesModel) View() string {
	if m.loading {
		return pad.Render("Loading vehicles...")
	}

	if m.err != nil {
		return pad.Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	var content string

	switch m.state {
	case vehiclesStateSummary:
		content = lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Render(m.summary)
	case vehiclesStateSchedule:
		content = lipgloss.JoinVertical(lipgloss.Left,
			"Amortization schedule of "+m.selected().Registration,
			"",
			m.schedule.View(),
		)
	default:
		content = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View())
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return pad.Render(content + "\n\n" + faintStyle.Render(m.ShortHelp()))
}

func (m VehiclesModel) selected() *vehicle.Vehicle {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.list) {
		return nil
	}

	return m.list[idx]
}

func (m *VehiclesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.list))

	for _, v := range m.list {
		loan, outstanding := "-", "-"
		if v.Loan != nil {
			loan = v.Loan.TotalLoan.StringFixed(2)
			outstanding = v.Loan.OutstandingLoan.StringFixed(2)
		}

		rows = append(rows, table.Row{
			v.Registration,
			fmt.Sprintf("%s %s %d", v.Make, v.Model, v.Year),
			v.WeeklyRent.StringFixed(2),
			loan,
			outstanding,
		})
	}

	m.table.SetRows(rows)
}

func (m *VehiclesModel) refreshSchedule() {
	rows := make([]table.Row, 0, len(m.entries))

	for _, e := range m.entries {
		paid := ""
		if e.IsPaid && e.PaidAt != nil {
			paid = FormatDate(*e.PaidAt)
		}

		rows = append(rows, table.Row{
			strconv.Itoa(e.Month),
			FormatDate(e.DueDate),
			e.Interest.StringFixed(2),
			e.Principal.StringFixed(2),
			e.Outstanding.StringFixed(2),
			paid,
		})
	}

	m.schedule.SetRows(rows)
}

// Messages

type loadVehiclesMsg struct {
	vehicles []*vehicle.Vehicle
	err      error
}

type summaryMsg struct {
	body string
	err  error
}

type scheduleMsg struct {
	entries []finance.ScheduleEntry
	err     error
}

type installmentMsg struct {
	status string
	err    error
}

func (m VehiclesModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		vehicles, err := m.vehicles.List(ctx, m.company())

		return loadVehiclesMsg{vehicles: vehicles, err: err}
	}
}

func (m VehiclesModel) summaryCmd() tea.Cmd {
	v := m.selected()
	if v == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		now := time.Now().UTC()

		summary, err := m.vehicles.Summary(ctx, v.CompanyID, v.ID, now)
		if err != nil {
			return summaryMsg{err: err}
		}

		return summaryMsg{body: export.SummaryText(&export.Report{
			Vehicle: v,
			Summary: summary,
			Filter:  export.Filter{CompanyID: v.CompanyID, VehicleID: v.ID, EndDate: &now},
		})}
	}
}

func (m VehiclesModel) scheduleCmd() tea.Cmd {
	v := m.selected()
	if v == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		entries, err := m.vehicles.Schedule(ctx, v.CompanyID, v.ID)

		return scheduleMsg{entries: entries, err: err}
	}
}

func (m VehiclesModel) installmentCmd(pay bool) tea.Cmd {
	v := m.selected()
	idx := m.schedule.Cursor()

	if v == nil || idx < 0 || idx >= len(m.entries) {
		return nil
	}

	month := m.entries[idx].Month

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if pay {
			_, err := m.vehicles.PayInstallment(ctx, v.CompanyID, v.ID, month, time.Now().UTC())
			return installmentMsg{status: fmt.Sprintf("Installment %d marked as paid", month), err: err}
		}

		_, err := m.vehicles.UndoInstallment(ctx, v.CompanyID, v.ID, month)

		return installmentMsg{status: fmt.Sprintf("Installment %d marked as unpaid", month), err: err}
	}
}
