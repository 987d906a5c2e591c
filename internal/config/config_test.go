package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fleetdesk/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_NAME", "fleet_test")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "postgres://postgres:@localhost:5432/fleet_test?sslmode=disable", cfg.ConnectionString())
}

func TestConfig_Validate(t *testing.T) {
	type testCase struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
	}

	tests := []testCase{
		{
			name:   "Postgres",
			mutate: func(c *config.Config) {},
		},
		{
			name: "Mongo",
			mutate: func(c *config.Config) {
				c.Storage.Backend = config.BackendMongo
			},
		},
		{
			name: "Mongo Without Database",
			mutate: func(c *config.Config) {
				c.Storage.Backend = config.BackendMongo
				c.Mongo.Database = ""
			},
			wantErr: true,
		},
		{
			name: "Unknown Backend",
			mutate: func(c *config.Config) {
				c.Storage.Backend = "sheets"
			},
			wantErr: true,
		},
		{
			name: "Zero Session TTL",
			mutate: func(c *config.Config) {
				c.Auth.SessionTTL = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Config{}
			cfg.Storage.Backend = config.BackendPostgres
			cfg.DB.Host = "localhost"
			cfg.DB.Name = "fleetdesk"
			cfg.Mongo.URI = "mongodb://localhost:27017"
			cfg.Mongo.Database = "fleetdesk"
			cfg.Auth.SessionTTL = time.Hour

			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}
