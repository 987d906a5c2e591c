package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/fleetdesk/internal/app"
	"github.com/MrJamesThe3rd/fleetdesk/internal/backend"
	"github.com/MrJamesThe3rd/fleetdesk/internal/config"
	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	"github.com/MrJamesThe3rd/fleetdesk/internal/logging"
	"github.com/MrJamesThe3rd/fleetdesk/internal/notify"
	"github.com/MrJamesThe3rd/fleetdesk/internal/reminder"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Setup(cfg.App.LogLevel, cfg.App.LogJSON, "worker")

	if cfg.SMTP.Host == "" {
		return errors.New("SMTP_HOST is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	services, err := app.NewServices(cfg, store.Repositories, app.Options{})
	if err != nil {
		return err
	}

	mailer := notify.NewMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	runner := reminder.NewRunner(services.Payments, services.Vehicles, services.Drivers, mailer, reminder.Config{
		OverdueSpec: cfg.Reminder.OverdueSpec,
		EMISpec:     cfg.Reminder.EMISpec,
		LeadDays:    cfg.Reminder.LeadDays,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runner.Run(gctx)
	})

	if cfg.AMQP.URL != "" {
		bus, err := notify.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, expense.EventSubmitted, expense.EventReviewed)
		if err != nil {
			return err
		}
		defer bus.Close()

		notifier := reminder.NewReviewNotifier(services.Expenses, services.Drivers, mailer)

		g.Go(func() error {
			return bus.Consume(gctx, notifier.Handle)
		})
	}

	slog.Info("worker started", "backend", store.Kind, "events", cfg.AMQP.URL != "")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	slog.Info("worker stopped")

	return nil
}
