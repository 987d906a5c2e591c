package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/fleetdesk/internal/app"
	"github.com/MrJamesThe3rd/fleetdesk/internal/auth/redisstore"
	"github.com/MrJamesThe3rd/fleetdesk/internal/backend"
	"github.com/MrJamesThe3rd/fleetdesk/internal/config"
	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	fleetHttp "github.com/MrJamesThe3rd/fleetdesk/internal/http"
	authHandler "github.com/MrJamesThe3rd/fleetdesk/internal/http/auth"
	categoryHandler "github.com/MrJamesThe3rd/fleetdesk/internal/http/category"
	driverHandler "github.com/MrJamesThe3rd/fleetdesk/internal/http/driver"
	expenseHandler "github.com/MrJamesThe3rd/fleetdesk/internal/http/expense"
	exportHandler "github.com/MrJamesThe3rd/fleetdesk/internal/http/export"
	"github.com/MrJamesThe3rd/fleetdesk/internal/http/httpx"
	importHandler "github.com/MrJamesThe3rd/fleetdesk/internal/http/importcsv"
	paymentHandler "github.com/MrJamesThe3rd/fleetdesk/internal/http/payment"
	vehicleHandler "github.com/MrJamesThe3rd/fleetdesk/internal/http/vehicle"
	"github.com/MrJamesThe3rd/fleetdesk/internal/logging"
	"github.com/MrJamesThe3rd/fleetdesk/internal/media"
	"github.com/MrJamesThe3rd/fleetdesk/internal/notify"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Setup(cfg.App.LogLevel, cfg.App.LogJSON, "api")

	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening backend: %w", err)
	}
	defer store.Close()

	redisClient, err := redisstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var publisher expense.Publisher

	if cfg.AMQP.URL != "" {
		bus, err := notify.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, expense.EventSubmitted, expense.EventReviewed)
		if err != nil {
			return err
		}
		defer bus.Close()

		publisher = bus
	}

	var uploader httpx.Uploader

	if cfg.Media.Bucket != "" {
		client, err := media.Connect(ctx)
		if err != nil {
			return err
		}

		u := media.NewUploader(client, cfg.Media.Bucket, cfg.Media.PublicBaseURL)
		defer u.Close()

		uploader = u
	}

	services, err := app.NewServices(cfg, store.Repositories, app.Options{
		Sessions:  redisstore.New(redisClient),
		Publisher: publisher,
	})
	if err != nil {
		return err
	}

	authH := authHandler.NewHandler(services.Auth)

	router := fleetHttp.New(fleetHttp.Handlers{
		Auth:       authH,
		Vehicles:   vehicleHandler.NewHandler(services.Vehicles, uploader),
		Expenses:   expenseHandler.NewHandler(services.Expenses, uploader),
		Payments:   paymentHandler.NewHandler(services.Payments),
		Drivers:    driverHandler.NewHandler(services.Drivers),
		Categories: categoryHandler.NewHandler(services.Categories),
		Import:     importHandler.NewHandler(services.Importer, services.Expenses),
		Export:     exportHandler.NewHandler(services.Export),
	}, fleetHttp.Options{
		Timeout:        cfg.Server.Timeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "port", cfg.App.Port, "backend", store.Kind)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
