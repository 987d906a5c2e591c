package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/fleetdesk/internal/category"
	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
)

type reviewState int

const (
	reviewStateTimeframe reviewState = iota
	reviewStateReviewing
)

// ReviewModel walks the pending expenses of a period one by one.
type ReviewModel struct {
	CommonModel
	expenses   *expense.Service
	categories *category.Service

	state           reviewState
	timeframePicker TimeframePicker

	queue      []*expense.Expense
	current    *expense.Expense
	suggestion string
	totalCount int

	status  string
	loading bool
}

func NewReviewModel(common CommonModel, expenses *expense.Service, categories *category.Service) ReviewModel {
	return ReviewModel{
		CommonModel:     common,
		expenses:        expenses,
		categories:      categories,
		timeframePicker: NewTimeframePicker(TimeframeThisMonth),
	}
}

func (m ReviewModel) Title() string { return "Review Expenses" }

func (m ReviewModel) Init() tea.Cmd {
	return nil
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.state = reviewStateReviewing
		m.loading = true

		return m, m.loadPendingCmd(msg)

	case loadPendingMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading expenses: %v", msg.err)
			return m, nil
		}

		m.queue = msg.expenses
		m.totalCount = len(m.queue)

		if m.totalCount == 0 {
			m.status = "No pending expenses found."
			return m, nil
		}

		return m, m.next()

	case suggestionMsg:
		m.suggestion = msg.category
		return m, nil

	case reviewResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
			return m, nil
		}

		return m, m.next()

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		if m.state == reviewStateTimeframe {
			if msg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
				return m, Back
			}

			break
		}

		switch msg.String() {
		case "esc":
			return m, Back
		case "a":
			return m, m.reviewCmd(expense.StatusApproved)
		case "x":
			return m, m.reviewCmd(expense.StatusRejected)
		case "n":
			return m, m.next()
		}

		return m, nil
	}

	if m.state == reviewStateTimeframe {
		var cmd tea.Cmd
		m.timeframePicker, cmd = m.timeframePicker.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m *ReviewModel) next() tea.Cmd {
	m.suggestion = ""

	if len(m.queue) == 0 {
		m.current = nil
		m.status = "All done! No more pending expenses."

		return nil
	}

	m.current = m.queue[0]
	m.queue = m.queue[1:]
	m.status = fmt.Sprintf("Reviewing %d/%d", m.totalCount-len(m.queue), m.totalCount)

	return m.suggestCmd(m.current)
}

func (m ReviewModel) View() string {
	if m.state == reviewStateTimeframe {
		return pad.Render(m.timeframePicker.View())
	}

	if m.loading {
		return pad.Render("Loading pending expenses...")
	}

	if m.current == nil {
		return pad.Render(m.status + "\n\n(Esc to back)")
	}

	e := m.current

	driver := "-"
	if e.DriverID != nil {
		driver = e.DriverID.String()
	}

	receipt := "none"
	if e.ReceiptURL != "" {
		receipt = e.ReceiptURL
	}

	info := fmt.Sprintf(
		"Date:     %s\nAmount:   %s\nType:     %s / %s\nDriver:   %s\nReceipt:  %s\nRaw:      %s\n",
		FormatDate(e.Date),
		FormatAmount(e.Amount),
		e.PaymentType,
		e.ExpenseType,
		driver,
		receipt,
		e.RawDescription,
	)

	if m.suggestion != "" {
		info += "Suggested category: " + lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(m.suggestion) + "\n"
	}

	return pad.Render(fmt.Sprintf("%s\n\n%s\n%s\n\n%s",
		m.status,
		lipgloss.NewStyle().Bold(true).Render(e.Description),
		info,
		faintStyle.Render("a: approve | x: reject | n: skip | Esc: back"),
	))
}

// Messages

type loadPendingMsg struct {
	expenses []*expense.Expense
	err      error
}

type suggestionMsg struct {
	category string
}

type reviewResultMsg struct {
	err error
}

func (m ReviewModel) loadPendingCmd(tf TimeframeSelectedMsg) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		status := expense.StatusPending
		filter := expense.ListFilter{CompanyID: m.company(), Status: &status}

		if !tf.All {
			filter.StartDate = &tf.Start
			filter.EndDate = &tf.End
		}

		expenses, err := m.expenses.List(ctx, filter)

		return loadPendingMsg{expenses: expenses, err: err}
	}
}

func (m ReviewModel) suggestCmd(e *expense.Expense) tea.Cmd {
	if e.RawDescription == "" {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		c, ok, err := m.categories.Suggest(ctx, e.CompanyID, e.RawDescription)
		if err != nil || !ok {
			return suggestionMsg{}
		}

		return suggestionMsg{category: string(c)}
	}
}

func (m ReviewModel) reviewCmd(to expense.Status) tea.Cmd {
	if m.current == nil {
		return nil
	}

	e := m.current
	reviewer := m.Session.UserID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.expenses.Review(ctx, e.CompanyID, e.ID, to, reviewer)

		return reviewResultMsg{err: err}
	}
}
