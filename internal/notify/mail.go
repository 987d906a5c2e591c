package notify

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Mailer sends plain text mail through one SMTP relay.
type Mailer struct {
	from string
	send func(e *email.Email) error
}

func NewMailer(cfg SMTPConfig) *Mailer {
	addr := cfg.Host + ":" + strconv.Itoa(cfg.Port)

	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}

	return &Mailer{
		from: cfg.From,
		send: func(e *email.Email) error { return e.Send(addr, auth) },
	}
}

func (m *Mailer) Send(to, subject, body string) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if err := m.send(e); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}

	slog.Info("mail sent", "to", to, "subject", subject)

	return nil
}
