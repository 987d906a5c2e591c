package notify

import (
	"errors"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailer_Send(t *testing.T) {
	var sent *email.Email

	m := NewMailer(SMTPConfig{Host: "smtp.example", Port: 587, From: "Fleetdesk <no-reply@fleet.example>"})
	m.send = func(e *email.Email) error {
		sent = e
		return nil
	}

	require.NoError(t, m.Send("driver@fleet.example", "EMI due", "Pay soon"))
	assert.Equal(t, []string{"driver@fleet.example"}, sent.To)
	assert.Equal(t, "Fleetdesk <no-reply@fleet.example>", sent.From)
	assert.Equal(t, "Pay soon", string(sent.Text))

	m.send = func(*email.Email) error { return errors.New("relay down") }
	assert.ErrorContains(t, m.Send("driver@fleet.example", "EMI due", "x"), "sending mail to driver@fleet.example")
}
