package config

// EnvPrefix scopes every environment variable the platform reads.
const EnvPrefix = "OPREMICO"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv    = "OPREMICO_APP_ENV"
	EnvPort      = "OPREMICO_APP_PORT"
	EnvDBDSN     = "OPREMICO_DB_DSN"
	EnvDBHost    = "OPREMICO_DB_HOST"
	EnvDBUser    = "OPREMICO_DB_USER"
	EnvDBName    = "OPREMICO_DB_NAME"
	EnvRedisURL  = "OPREMICO_REDIS_URL"
	EnvGCSBucket = "OPREMICO_GCS_BUCKET_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
