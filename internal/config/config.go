package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Backend selects where records are persisted.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMongo    Backend = "mongo"
)

type Config struct {
	App struct {
		Name     string `envconfig:"APP_NAME" default:"Fleetdesk"`
		Port     int    `envconfig:"PORT" default:"8080"`
		LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
		LogJSON  bool   `envconfig:"LOG_JSON" default:"false"`
	}

	Storage struct {
		Backend Backend `envconfig:"STORAGE_BACKEND" default:"postgres"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"fleetdesk"`
	}

	Mongo struct {
		URI         string        `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
		Database    string        `envconfig:"MONGO_DATABASE" default:"fleetdesk"`
		MaxPoolSize uint64        `envconfig:"MONGO_MAX_POOL_SIZE" default:"50"`
		MinPoolSize uint64        `envconfig:"MONGO_MIN_POOL_SIZE" default:"5"`
		MaxIdleTime time.Duration `envconfig:"MONGO_MAX_IDLE_TIME" default:"5m"`
	}

	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
		Password string `envconfig:"REDIS_PASSWORD" default:""`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	}

	Auth struct {
		JWTSecret  string        `envconfig:"JWT_SECRET"`
		SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	}

	Finance struct {
		RulesFile string `envconfig:"CATEGORY_RULES_FILE"`
	}

	Media struct {
		Bucket        string `envconfig:"GCS_BUCKET"`
		PublicBaseURL string `envconfig:"GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
		Token         string `envconfig:"MEDIA_TOKEN"`
	}

	AMQP struct {
		URL      string `envconfig:"AMQP_URL"`
		Exchange string `envconfig:"AMQP_EXCHANGE" default:"fleetdesk"`
		Queue    string `envconfig:"AMQP_QUEUE" default:"fleetdesk.events"`
	}

	SMTP struct {
		Host     string `envconfig:"SMTP_HOST"`
		Port     int    `envconfig:"SMTP_PORT" default:"587"`
		User     string `envconfig:"SMTP_USER"`
		Password string `envconfig:"SMTP_PASSWORD"`
		From     string `envconfig:"SMTP_FROM" default:"Fleetdesk <no-reply@fleetdesk.local>"`
	}

	Reminder struct {
		OverdueSpec string `envconfig:"REMINDER_OVERDUE_SPEC" default:"@hourly"`
		EMISpec     string `envconfig:"REMINDER_EMI_SPEC" default:"0 8 * * *"`
		LeadDays    int    `envconfig:"REMINDER_LEAD_DAYS" default:"3"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendPostgres:
		if c.DB.Host == "" || c.DB.Name == "" {
			return fmt.Errorf("postgres backend requires DB_HOST and DB_NAME")
		}
	case BackendMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return fmt.Errorf("mongo backend requires MONGO_URI and MONGO_DATABASE")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
