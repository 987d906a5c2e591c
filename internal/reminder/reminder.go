// Package reminder runs the periodic back-office jobs: flagging unpaid rent
// as overdue and mailing drivers about upcoming loan installments.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/MrJamesThe3rd/fleetdesk/internal/driver"
	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/finance"
	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
)

//go:generate mockgen -source=reminder.go -destination=reminder_mock.go -package=reminder
type Payments interface {
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

type Vehicles interface {
	Financed(ctx context.Context) ([]*vehicle.Vehicle, error)
}

type Drivers interface {
	Get(ctx context.Context, companyID, id uuid.UUID) (*driver.Driver, error)
}

type Expenses interface {
	Get(ctx context.Context, companyID, id uuid.UUID) (*expense.Expense, error)
}

type Mailer interface {
	Send(to, subject, body string) error
}

type Config struct {
	OverdueSpec string
	EMISpec     string
	LeadDays    int
}

type Runner struct {
	payments Payments
	vehicles Vehicles
	drivers  Drivers
	mailer   Mailer
	cfg      Config
	now      func() time.Time
}

func NewRunner(payments Payments, vehicles Vehicles, drivers Drivers, mailer Mailer, cfg Config) *Runner {
	return &Runner{
		payments: payments,
		vehicles: vehicles,
		drivers:  drivers,
		mailer:   mailer,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run schedules both jobs and blocks until ctx is done, then waits for any
// running job to finish.
func (r *Runner) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	if _, err := c.AddFunc(r.cfg.OverdueSpec, func() { r.logJob(ctx, "overdue", r.SweepOverdue) }); err != nil {
		return fmt.Errorf("scheduling overdue sweep: %w", err)
	}

	if _, err := c.AddFunc(r.cfg.EMISpec, func() { r.logJob(ctx, "emi", r.RemindInstallments) }); err != nil {
		return fmt.Errorf("scheduling EMI reminders: %w", err)
	}

	c.Start()
	slog.InfoContext(ctx, "reminder jobs scheduled", "overdue", r.cfg.OverdueSpec, "emi", r.cfg.EMISpec)

	<-ctx.Done()
	<-c.Stop().Done()

	return nil
}

func (r *Runner) logJob(ctx context.Context, name string, job func(context.Context) (int, error)) {
	n, err := job(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "reminder job failed", "job", name, "error", err)
		return
	}

	slog.InfoContext(ctx, "reminder job finished", "job", name, "count", n)
}

// SweepOverdue flags rent payments whose week has ended as overdue.
func (r *Runner) SweepOverdue(ctx context.Context) (int, error) {
	n, err := r.payments.MarkOverdue(ctx, r.now())
	if err != nil {
		return 0, fmt.Errorf("marking overdue payments: %w", err)
	}

	return int(n), nil
}

// Due is an unpaid installment falling inside the reminder window.
type Due struct {
	Vehicle *vehicle.Vehicle
	Entry   finance.ScheduleEntry
}

// Upcoming returns the unpaid installments due between today and today
// plus the lead days, both inclusive.
func (r *Runner) Upcoming(ctx context.Context) ([]Due, error) {
	vehicles, err := r.vehicles.Financed(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing financed vehicles: %w", err)
	}

	now := r.now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	until := from.AddDate(0, 0, r.cfg.LeadDays+1)

	var due []Due

	for _, v := range vehicles {
		if v.Loan == nil {
			continue
		}

		schedule, err := finance.BuildAmortizationSchedule(*v.Loan)
		if err != nil {
			slog.WarnContext(ctx, "skipping vehicle with invalid loan", "vehicle_id", v.ID, "error", err)
			continue
		}

		for _, e := range finance.MergePaymentState(schedule, v.Loan.AmortizationSchedule) {
			if e.IsPaid || e.DueDate.Before(from) || !e.DueDate.Before(until) {
				continue
			}

			due = append(due, Due{Vehicle: v, Entry: e})
		}
	}

	return due, nil
}

// RemindInstallments mails the driver of every vehicle with an installment
// coming up. Vehicles without a driver or a driver without email are skipped.
func (r *Runner) RemindInstallments(ctx context.Context) (int, error) {
	due, err := r.Upcoming(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0

	for _, d := range due {
		if d.Vehicle.DriverID == nil {
			continue
		}

		drv, err := r.drivers.Get(ctx, d.Vehicle.CompanyID, *d.Vehicle.DriverID)
		if err != nil {
			slog.WarnContext(ctx, "driver lookup failed", "vehicle_id", d.Vehicle.ID, "error", err)
			continue
		}

		if drv.Email == "" || !drv.Active {
			continue
		}

		subject, body := installmentMail(drv, d)
		if err := r.mailer.Send(drv.Email, subject, body); err != nil {
			slog.WarnContext(ctx, "reminder not sent", "driver_id", drv.ID, "error", err)
			continue
		}

		sent++
	}

	return sent, nil
}

func installmentMail(drv *driver.Driver, d Due) (string, string) {
	amount := d.Entry.Interest.Add(d.Entry.Principal).StringFixed(2)
	date := d.Entry.DueDate.Format(time.DateOnly)

	subject := fmt.Sprintf("Installment %d for %s due on %s", d.Entry.Month, d.Vehicle.Registration, date)
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Installment %d of the loan on %s is due on %s.\n"+
			"Amount: %s\n\n"+
			"Fleetdesk",
		drv.Name, d.Entry.Month, d.Vehicle.Registration, date, amount,
	)

	return subject, body
}
