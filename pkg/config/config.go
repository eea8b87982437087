package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable read by Load.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	MQTT         MQTTConfig
	Midtrans     MidtransConfig
	Session      SessionConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SMARTKASIR_APP_ENV" required:"true"`
	Port         string `envconfig:"SMARTKASIR_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SMARTKASIR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SMARTKASIR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"SMARTKASIR_DB_DSN"`
	SQLitePath string `envconfig:"SMARTKASIR_SQLITE_PATH" default:"smartkasir.db"`

	MaxOpenConns    int           `envconfig:"SMARTKASIR_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"SMARTKASIR_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"SMARTKASIR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SMARTKASIR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) validate(useSQLite bool) error {
	if useSQLite {
		return nil
	}
	if strings.TrimSpace(db.DSN) == "" {
		return fmt.Errorf("SMARTKASIR_DB_DSN is required unless SMARTKASIR_USE_SQLITE is set")
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SMARTKASIR_REDIS_URL"`
	DialTimeout  time.Duration `envconfig:"SMARTKASIR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SMARTKASIR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SMARTKASIR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis catalog cache has been configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type MQTTConfig struct {
	BrokerURL      string        `envconfig:"SMARTKASIR_MQTT_BROKER_URL" required:"true"`
	ClientID       string        `envconfig:"SMARTKASIR_MQTT_CLIENT_ID" default:"smartkasir-terminal"`
	Username       string        `envconfig:"SMARTKASIR_MQTT_USERNAME"`
	Password       string        `envconfig:"SMARTKASIR_MQTT_PASSWORD"`
	QoS            byte          `envconfig:"SMARTKASIR_MQTT_QOS" default:"1"`
	ConnectTimeout time.Duration `envconfig:"SMARTKASIR_MQTT_CONNECT_TIMEOUT" default:"10s"`
	OpTimeout      time.Duration `envconfig:"SMARTKASIR_MQTT_OP_TIMEOUT" default:"5s"`
}

type MidtransConfig struct {
	ServerKey string `envconfig:"SMARTKASIR_MIDTRANS_SERVER_KEY" required:"true"`
	Env       string `envconfig:"SMARTKASIR_MIDTRANS_ENV" default:"sandbox"`
	// MaxRetries bounds retry attempts for transient Snap API failures.
	MaxRetries uint64 `envconfig:"SMARTKASIR_MIDTRANS_MAX_RETRIES" default:"2"`
}

// Environment returns the normalized Midtrans environment (sandbox/production).
func (m MidtransConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(m.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type SessionConfig struct {
	// ListenTimeout bounds how long a session waits for a cart message.
	// Zero means wait indefinitely.
	ListenTimeout   time.Duration `envconfig:"SMARTKASIR_SESSION_LISTEN_TIMEOUT" default:"0"`
	CatalogCacheTTL time.Duration `envconfig:"SMARTKASIR_CATALOG_CACHE_TTL" default:"5m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SMARTKASIR_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SMARTKASIR_AUTO_MIGRATE" default:"false"`
}
