// Package backend opens the configured persistence backend and hands out
// the repositories every service is built on.
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/MrJamesThe3rd/fleetdesk/internal/auth"
	authmongo "github.com/MrJamesThe3rd/fleetdesk/internal/auth/mongostore"
	authstore "github.com/MrJamesThe3rd/fleetdesk/internal/auth/store"
	"github.com/MrJamesThe3rd/fleetdesk/internal/category"
	categorymongo "github.com/MrJamesThe3rd/fleetdesk/internal/category/mongostore"
	categorystore "github.com/MrJamesThe3rd/fleetdesk/internal/category/store"
	"github.com/MrJamesThe3rd/fleetdesk/internal/config"
	"github.com/MrJamesThe3rd/fleetdesk/internal/database"
	"github.com/MrJamesThe3rd/fleetdesk/internal/driver"
	drivermongo "github.com/MrJamesThe3rd/fleetdesk/internal/driver/mongostore"
	driverstore "github.com/MrJamesThe3rd/fleetdesk/internal/driver/store"
	"github.com/MrJamesThe3rd/fleetdesk/internal/expense"
	expensemongo "github.com/MrJamesThe3rd/fleetdesk/internal/expense/mongostore"
	expensestore "github.com/MrJamesThe3rd/fleetdesk/internal/expense/store"
	"github.com/MrJamesThe3rd/fleetdesk/internal/mongodb"
	"github.com/MrJamesThe3rd/fleetdesk/internal/payment"
	paymentmongo "github.com/MrJamesThe3rd/fleetdesk/internal/payment/mongostore"
	paymentstore "github.com/MrJamesThe3rd/fleetdesk/internal/payment/store"
	"github.com/MrJamesThe3rd/fleetdesk/internal/vehicle"
	vehiclemongo "github.com/MrJamesThe3rd/fleetdesk/internal/vehicle/mongostore"
	vehiclestore "github.com/MrJamesThe3rd/fleetdesk/internal/vehicle/store"
)

type Repositories struct {
	Auth       auth.Repository
	Categories category.Repository
	Drivers    driver.Repository
	Expenses   expense.Repository
	Payments   payment.Repository
	Vehicles   vehicle.Repository
}

type Backend struct {
	Repositories

	Kind  config.Backend
	close func() error
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}

	return b.close()
}

// Open connects to the backend selected in cfg and brings its schema up to
// date: migrations on Postgres, indexes on Mongo.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		return openPostgres(cfg)
	case config.BackendMongo:
		return openMongo(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

func openPostgres(cfg *config.Config) (*Backend, error) {
	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("initialized postgres backend", "host", cfg.DB.Host, "database", cfg.DB.Name)

	return &Backend{
		Repositories: Postgres(db),
		Kind:         config.BackendPostgres,
		close:        db.Close,
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config) (*Backend, error) {
	client, db, err := mongodb.Connect(ctx, mongodb.Options{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
		MinPoolSize: cfg.Mongo.MinPoolSize,
		MaxIdleTime: cfg.Mongo.MaxIdleTime,
	})
	if err != nil {
		return nil, err
	}

	disconnect := func() error {
		return client.Disconnect(context.Background())
	}

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		_ = disconnect()
		return nil, err
	}

	return &Backend{
		Repositories: Mongo(db),
		Kind:         config.BackendMongo,
		close:        disconnect,
	}, nil
}

// Postgres wires the SQL stores over an open database.
func Postgres(db *sql.DB) Repositories {
	return Repositories{
		Auth:       authstore.New(db),
		Categories: categorystore.New(db),
		Drivers:    driverstore.New(db),
		Expenses:   expensestore.New(db),
		Payments:   paymentstore.New(db),
		Vehicles:   vehiclestore.New(db),
	}
}

// Mongo wires the document stores over db.
func Mongo(db *mongo.Database) Repositories {
	return Repositories{
		Auth:       authmongo.New(db),
		Categories: categorymongo.New(db),
		Drivers:    drivermongo.New(db),
		Expenses:   expensemongo.New(db),
		Payments:   paymentmongo.New(db),
		Vehicles:   vehiclemongo.New(db),
	}
}
