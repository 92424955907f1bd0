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
	GCP          GCPConfig
	GCS          GCSConfig
	Archive      ArchiveConfig
	Documents    DocumentsConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"OPREMICO_APP_ENV" required:"true"`
	Port         string `envconfig:"OPREMICO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OPREMICO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OPREMICO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"OPREMICO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"OPREMICO_DB_DSN"`

	LegacyHost     string `envconfig:"OPREMICO_DB_HOST"`
	LegacyPort     int    `envconfig:"OPREMICO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OPREMICO_DB_USER"`
	LegacyPassword string `envconfig:"OPREMICO_DB_PASSWORD"`
	LegacyName     string `envconfig:"OPREMICO_DB_NAME"`
	LegacySSLMode  string `envconfig:"OPREMICO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OPREMICO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OPREMICO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OPREMICO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OPREMICO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OPREMICO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"OPREMICO_REDIS_ADDR"`
	Password     string        `envconfig:"OPREMICO_REDIS_PASSWORD"`
	DB           int           `envconfig:"OPREMICO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OPREMICO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OPREMICO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OPREMICO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OPREMICO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OPREMICO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"OPREMICO_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"OPREMICO_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"OPREMICO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"OPREMICO_GCS_BUCKET_NAME" required:"true"`
	PublicBase string `envconfig:"OPREMICO_GCS_PUBLIC_BASE" default:"https://storage.googleapis.com"`
}

type ArchiveConfig struct {
	RetentionDays  int `envconfig:"OPREMICO_ARCHIVE_RETENTION_DAYS" default:"60"`
	SweepBatchSize int `envconfig:"OPREMICO_ARCHIVE_SWEEP_BATCH_SIZE" default:"200"`
}

// Retention returns the archive recovery window as a duration.
func (a ArchiveConfig) Retention() time.Duration {
	days := a.RetentionDays
	if days <= 0 {
		days = 60
	}
	return time.Duration(days) * 24 * time.Hour
}

type DocumentsConfig struct {
	NumberWidth   int    `envconfig:"OPREMICO_DOCUMENT_NUMBER_WIDTH" default:"5"`
	StoragePrefix string `envconfig:"OPREMICO_DOCUMENT_STORAGE_PREFIX" default:"documents"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"OPREMICO_CRON_INTERVAL" default:"1h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"OPREMICO_AUTO_MIGRATE" default:"false"`
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
