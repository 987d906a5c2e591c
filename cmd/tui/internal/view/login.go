package view

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
)

// Authenticator logs a user in.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, *auth.Session, error)
}

// LoggedInMsg carries the session of a successful login.
type LoggedInMsg struct {
	Session *auth.Session
}

type credentials struct {
	email    string
	password string
}

type LoginModel struct {
	auth Authenticator

	form  *huh.Form
	creds *credentials
	err   error
	busy  bool
}

func NewLoginModel(a Authenticator) LoginModel {
	m := LoginModel{auth: a, creds: &credentials{}}
	m.form = m.buildForm()

	return m
}

func (m LoginModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("email").
				Title("Email").
				Value(&m.creds.email).
				Validate(func(s string) error {
					if !strings.Contains(s, "@") {
						return errors.New("enter an email address")
					}

					return nil
				}),
			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.creds.password),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

type loginResultMsg struct {
	session *auth.Session
	err     error
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case loginResultMsg:
		m.busy = false

		if msg.err != nil {
			m.err = msg.err
			m.creds.password = ""
			m.form = m.buildForm()

			return m, m.form.Init()
		}

		session := msg.session

		return m, func() tea.Msg { return LoggedInMsg{Session: session} }
	}

	if m.busy {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.busy = true
	m.err = nil

	return m, m.loginCmd(m.creds.email, m.creds.password)
}

func (m LoginModel) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, session, err := m.auth.Login(ctx, email, password)
		if err != nil {
			return loginResultMsg{err: err}
		}

		if !session.Role.Can(auth.RoleOperator) {
			return loginResultMsg{err: fmt.Errorf("%s accounts cannot use the terminal client", session.Role)}
		}

		return loginResultMsg{session: session}
	}
}

func (m LoginModel) View() string {
	if m.busy {
		return pad.Render("Signing in...")
	}

	s := "Fleetdesk\n\n" + m.form.View()
	if m.err != nil {
		s += "\n" + errorStyle.Render(m.err.Error())
	}

	return pad.Render(s)
}
