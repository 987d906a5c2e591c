package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/importer"
	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateFormatSelect importState = iota
	importStateVehiclePick
	importStateFilePick
	importStateImporting
	importStateConflicts
	importStateResult
)

// ImportModel turns a bank statement into pending expenses of one vehicle.
type ImportModel struct {
	CommonModel
	expenses *expense.Service
	importer *importer.Service

	state          importState
	filePicker     filepicker.Model
	vehiclePicker  VehiclePicker
	vehicle        *vehicle.Vehicle
	selectedFormat importer.Format
	formatOptions  []importer.Format
	formatCursor   int

	newParams    []expense.CreateParams
	conflicts    []expense.Conflict
	conflictList list.Model
	selected     map[int]bool
	credits      int

	status string
	err    error
}

func NewImportModel(common CommonModel, expenses *expense.Service, imp *importer.Service, vehicles *vehicle.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	fp.AllowedTypes = []string{".csv", ".txt"}

	return ImportModel{
		CommonModel:   common,
		expenses:      expenses,
		importer:      imp,
		filePicker:    fp,
		vehiclePicker: NewVehiclePicker(vehicles, common.company()),
		formatOptions: imp.Formats(),
		selected:      make(map[int]bool),
	}
}

func (m ImportModel) Title() string { return "Import Statement" }

func (m ImportModel) ShortHelp() string {
	switch m.state {
	case importStateConflicts:
		return "Space: toggle | a: all | n: none | Enter: confirm | Esc: cancel"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return nil
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == importStateFormatSelect {
			return m.updateFormatSelect(msg)
		}

		if m.state == importStateVehiclePick {
			var cmd tea.Cmd
			m.vehiclePicker, cmd = m.vehiclePicker.Update(msg)

			return m, cmd
		}

		if m.state == importStateConflicts {
			return m.updateConflicts(msg)
		}

	case pickerLoadedMsg:
		m.vehiclePicker, _ = m.vehiclePicker.Update(msg)
		return m, nil

	case VehicleSelectedMsg:
		m.vehicle = msg.Vehicle
		m.state = importStateFilePick

		return m, m.filePicker.Init()

	case importResultMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.credits = msg.credits

		if len(msg.result.Conflicts) == 0 {
			m.state = importStateResult
			m.status = fmt.Sprintf("Imported %d expenses as pending, skipped %d credits.", len(msg.result.Imported), m.credits)

			return m, nil
		}

		m.newParams = msg.result.New
		m.conflicts = msg.result.Conflicts
		m.selected = make(map[int]bool)
		m.state = importStateConflicts

		items := make([]list.Item, len(m.conflicts))
		for i, c := range m.conflicts {
			items[i] = conflictItem{conflict: c, index: i}
		}

		delegate := conflictDelegate{selected: &m.selected}
		m.conflictList = list.New(items, delegate, 80, 20)
		m.conflictList.Title = "Duplicate Conflicts"
		m.conflictList.SetShowStatusBar(false)
		m.conflictList.SetFilteringEnabled(false)
		m.conflictList.SetShowHelp(false)

		return m, nil

	case confirmResultMsg:
		m.state = importStateResult
		if msg.err != nil {
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.status = fmt.Sprintf("Imported %d expenses as pending, skipped %d credits.", msg.count, m.credits)

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importing from %s...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateVehiclePick:
		m.state = importStateFormatSelect
		return m, nil
	case importStateFilePick:
		m.state = importStateVehiclePick
		return m, nil
	case importStateResult:
		m.state = importStateFormatSelect
		m.err = nil
		m.status = ""

		return m, nil
	case importStateConflicts:
		m.state = importStateFormatSelect
		m.conflicts = nil
		m.newParams = nil
		m.selected = make(map[int]bool)

		return m, nil
	}

	return m, Back
}

func (m ImportModel) updateFormatSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.formatCursor > 0 {
			m.formatCursor--
		}
	case tea.KeyDown:
		if m.formatCursor < len(m.formatOptions)-1 {
			m.formatCursor++
		}
	case tea.KeyEnter:
		if len(m.formatOptions) == 0 {
			return m, nil
		}

		m.selectedFormat = m.formatOptions[m.formatCursor]
		m.state = importStateVehiclePick

		return m, m.vehiclePicker.Init()
	}

	return m, nil
}

func (m ImportModel) updateConflicts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		idx := m.conflictList.Index()
		m.selected[idx] = !m.selected[idx]

		return m, nil
	case "a":
		for i := range m.conflicts {
			m.selected[i] = true
		}

		return m, nil
	case "n":
		for i := range m.conflicts {
			m.selected[i] = false
		}

		return m, nil
	case "enter":
		return m, m.confirmCmd()
	}

	var cmd tea.Cmd
	m.conflictList, cmd = m.conflictList.Update(msg)

	return m, cmd
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateFormatSelect:
		return m.viewFormatSelect()
	case importStateVehiclePick:
		return pad.Render(m.vehiclePicker.View())
	case importStateFilePick:
		return m.viewFilePick()
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateConflicts:
		return lipgloss.NewStyle().Padding(1).Render(m.conflictList.View())
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewFormatSelect() string {
	s := "Select Statement Format:\n\n"

	for i, format := range m.formatOptions {
		cursor := " "
		if i == m.formatCursor {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s\n", cursor, string(format))
	}

	return lipgloss.NewStyle().Padding(2).Render(s)
}

func (m ImportModel) viewFilePick() string {
	return lipgloss.NewStyle().Padding(1).Render(
		fmt.Sprintf("Select %s statement for %s:\n\n%s", m.selectedFormat, m.vehicle.Registration, m.filePicker.View()),
	)
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(errorStyle.Render(m.status) + "\n\n(Esc to go back)")
	}

	return style.Render(successStyle.Render(m.status) + "\n\n(Esc to go back)")
}

// Messages

type importResultMsg struct {
	result  *expense.ImportResult
	credits int
	err     error
}

type confirmResultMsg struct {
	count int
	err   error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		target := importer.Target{CompanyID: m.company(), VehicleID: m.vehicle.ID, DriverID: m.vehicle.DriverID}

		drafts, err := m.importer.Drafts(ctx, m.selectedFormat, target, f)
		if err != nil {
			return importResultMsg{err: err}
		}

		result, err := m.expenses.ImportBatch(ctx, target.CompanyID, drafts.Drafts)
		if err != nil {
			return importResultMsg{err: err}
		}

		return importResultMsg{result: result, credits: drafts.Credits}
	}
}

func (m ImportModel) confirmCmd() tea.Cmd {
	newParams := m.newParams
	conflicts := m.conflicts
	selected := m.selected

	return func() tea.Msg {
		var allParams []expense.CreateParams
		allParams = append(allParams, newParams...)

		for i, c := range conflicts {
			if !selected[i] {
				continue
			}

			allParams = append(allParams, c.Incoming)
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		created, err := m.expenses.CreateBatch(ctx, m.company(), allParams)
		if err != nil {
			return confirmResultMsg{err: err}
		}

		return confirmResultMsg{count: len(created)}
	}
}

// Conflict list item

type conflictItem struct {
	conflict expense.Conflict
	index    int
}

func (i conflictItem) Title() string       { return "" }
func (i conflictItem) Description() string { return "" }
func (i conflictItem) FilterValue() string { return "" }

// Conflict list delegate

type conflictDelegate struct {
	selected *map[int]bool
}

func (d conflictDelegate) Height() int                             { return 3 }
func (d conflictDelegate) Spacing() int                            { return 0 }
func (d conflictDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d conflictDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(conflictItem)
	if !ok {
		return
	}

	checkbox := "[ ]"
	if (*d.selected)[item.index] {
		checkbox = "[x]"
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	incoming := item.conflict.Incoming
	existing := item.conflict.Existing

	line1 := fmt.Sprintf("%s%s %s  %s  %s",
		cursor, checkbox,
		FormatDate(incoming.Date),
		FormatAmount(incoming.Amount),
		incoming.Description,
	)

	line2 := fmt.Sprintf("      Already stored: %s  %s  %s [%s]",
		FormatDate(existing.Date),
		FormatAmount(existing.Amount),
		existing.Description,
		existing.Status,
	)

	fmt.Fprintf(w, "%s\n%s\n", line1, line2)
}
