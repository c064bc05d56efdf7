package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Stripe       StripeConfig
	Mailgun      MailgunConfig
	Outbox       OutboxConfig
	Orders       OrdersConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NBOX_APP_ENV" required:"true"`
	Port         string `envconfig:"NBOX_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NBOX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NBOX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"NBOX_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"NBOX_DB_DSN"`
	Driver string `envconfig:"NBOX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NBOX_DB_HOST"`
	LegacyPort     int    `envconfig:"NBOX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NBOX_DB_USER"`
	LegacyPassword string `envconfig:"NBOX_DB_PASSWORD"`
	LegacyName     string `envconfig:"NBOX_DB_NAME"`
	LegacySSLMode  string `envconfig:"NBOX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NBOX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NBOX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NBOX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NBOX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NBOX_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NBOX_REDIS_ADDR"`
	Password     string        `envconfig:"NBOX_REDIS_PASSWORD"`
	DB           int           `envconfig:"NBOX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NBOX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NBOX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NBOX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NBOX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NBOX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"NBOX_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"NBOX_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"NBOX_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TokenTTL returns the access token TTL configured in minutes.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"NBOX_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"NBOX_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL  time.Duration `envconfig:"NBOX_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	WebhookIdempotencyTTL time.Duration `envconfig:"NBOX_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"NBOX_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"NBOX_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"NBOX_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"NBOX_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription       string `envconfig:"NBOX_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	NotificationSubscription string `envconfig:"NBOX_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"nbox-notification-worker"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"NBOX_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"NBOX_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"NBOX_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"NBOX_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"NBOX_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"NBOX_STRIPE_ENV" default:"test"`
	SuccessURL    string `envconfig:"NBOX_STRIPE_SUCCESS_URL" default:"https://nbox.app/checkout/success"`
	CancelURL     string `envconfig:"NBOX_STRIPE_CANCEL_URL" default:"https://nbox.app/checkout/cancel"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type MailgunConfig struct {
	Domain      string `envconfig:"NBOX_MAILGUN_DOMAIN"`
	APIKey      string `envconfig:"NBOX_MAILGUN_API_KEY"`
	DefaultFrom string `envconfig:"NBOX_MAILGUN_FROM_EMAIL" default:"Nbox <no-reply@nbox.app>"`
}

type OrdersConfig struct {
	MaxQuantityPerItem  int `envconfig:"NBOX_ORDERS_MAX_QUANTITY_PER_ITEM" default:"100"`
	ScheduleHorizonDays int `envconfig:"NBOX_ORDERS_SCHEDULE_HORIZON_DAYS" default:"6"`
	LowStockThreshold   int `envconfig:"NBOX_ORDERS_LOW_STOCK_THRESHOLD" default:"5"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
