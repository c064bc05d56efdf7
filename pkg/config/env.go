package config

// EnvPrefix is the envconfig prefix for every variable this service reads.
const EnvPrefix = "NBOX"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names, spelled out for tests and error messages.
const (
	EnvAppEnv   = "NBOX_APP_ENV"
	EnvPort     = "NBOX_APP_PORT"
	EnvLogLevel = "NBOX_LOG_LEVEL"

	EnvDBDSN    = "NBOX_DB_DSN"
	EnvDBHost   = "NBOX_DB_HOST"
	EnvDBUser   = "NBOX_DB_USER"
	EnvDBName   = "NBOX_DB_NAME"
	EnvRedisURL = "NBOX_REDIS_URL"

	EnvJWTSecret  = "NBOX_JWT_SECRET"
	EnvJWTIssuer  = "NBOX_JWT_ISSUER"
	EnvJWTExpMins = "NBOX_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "NBOX_GCP_PROJECT_ID"

	EnvPubSubOrdersTopic     = "NBOX_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub       = "NBOX_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvPubSubNotificationSub = "NBOX_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvStripeAPIKey        = "NBOX_STRIPE_API_KEY"
	EnvStripeWebhookSecret = "NBOX_STRIPE_WEBHOOK_SECRET"

	EnvMailgunDomain = "NBOX_MAILGUN_DOMAIN"
	EnvMailgunAPIKey = "NBOX_MAILGUN_API_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
