// Package view holds the screens of the fleet terminal client.
package view

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
)

type CommonModel struct {
	Session *auth.Session
	Width   int
	Height  int
}

func (c CommonModel) company() uuid.UUID {
	if c.Session == nil {
		return uuid.Nil
	}

	return c.Session.CompanyID
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	pad          = lipgloss.NewStyle().Padding(1)
)
