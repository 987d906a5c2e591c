package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrJamesThe3rd/fleetdesk/internal/driver"
	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/notify"
)

// ReviewNotifier mails drivers when one of their expenses is reviewed.
type ReviewNotifier struct {
	expenses Expenses
	drivers  Drivers
	mailer   Mailer
}

func NewReviewNotifier(expenses Expenses, drivers Drivers, mailer Mailer) *ReviewNotifier {
	return &ReviewNotifier{expenses: expenses, drivers: drivers, mailer: mailer}
}

// Handle processes one event from the bus. A returned error asks for
// redelivery, so records that no longer exist are skipped without one.
func (n *ReviewNotifier) Handle(ctx context.Context, env notify.Envelope) error {
	switch env.Event {
	case expense.EventSubmitted, expense.EventReviewed:
	default:
		slog.DebugContext(ctx, "ignoring event", "event", env.Event)
		return nil
	}

	var ev expense.Event
	if err := json.Unmarshal(env.Payload, &ev); err != nil {
		slog.WarnContext(ctx, "dropping malformed expense event", "event", env.Event, "error", err)
		return nil
	}

	if env.Event == expense.EventSubmitted {
		slog.InfoContext(ctx, "expense submitted", "expense_id", ev.ExpenseID, "vehicle_id", ev.VehicleID, "amount", ev.Amount)
		return nil
	}

	e, err := n.expenses.Get(ctx, ev.CompanyID, ev.ExpenseID)
	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			return nil
		}

		return fmt.Errorf("loading expense %s: %w", ev.ExpenseID, err)
	}

	if e.DriverID == nil {
		return nil
	}

	drv, err := n.drivers.Get(ctx, e.CompanyID, *e.DriverID)
	if err != nil {
		if errors.Is(err, driver.ErrNotFound) {
			return nil
		}

		return fmt.Errorf("loading driver %s: %w", *e.DriverID, err)
	}

	if drv.Email == "" {
		return nil
	}

	subject, body := reviewMail(drv, e)
	if err := n.mailer.Send(drv.Email, subject, body); err != nil {
		return fmt.Errorf("mailing driver %s: %w", drv.ID, err)
	}

	slog.InfoContext(ctx, "review notification sent", "expense_id", e.ID, "driver_id", drv.ID, "status", e.Status)

	return nil
}

func reviewMail(drv *driver.Driver, e *expense.Expense) (string, string) {
	subject := fmt.Sprintf("Expense %q was %s", e.Description, e.Status)
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Your expense %q of %s from %s was %s.\n\n"+
			"Fleetdesk",
		drv.Name, e.Description, e.Amount.StringFixed(2), e.Date.Format("2006-01-02"), e.Status,
	)

	return subject, body
}
