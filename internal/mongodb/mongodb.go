// Package mongodb connects to MongoDB and provides a typed collection helper
// shared by the document stores.
package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Options struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	MinPoolSize uint64
	MaxIdleTime time.Duration
}

// Connect opens a pooled client and verifies it with a ping.
func Connect(ctx context.Context, opts Options) (*mongo.Client, *mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetMaxPoolSize(opts.MaxPoolSize).
		SetMinPoolSize(opts.MinPoolSize).
		SetMaxConnIdleTime(opts.MaxIdleTime)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("pinging mongo: %w", err)
	}

	slog.Info("connected to mongo", "uri", redact(opts.URI), "database", opts.Database)

	return client, client.Database(opts.Database), nil
}

func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "invalid-uri"
	}

	return u.Redacted()
}
