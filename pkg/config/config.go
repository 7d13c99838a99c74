package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "REGISTRA"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "REGISTRA_APP_ENV"
	EnvDBDSN  = "REGISTRA_DB_DSN"
	EnvDBHost = "REGISTRA_DB_HOST"
	EnvDBUser = "REGISTRA_DB_USER"
	EnvDBName = "REGISTRA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Registers    RegisterConfig
	RateLimit    RateLimitConfig
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
	Env          string `envconfig:"REGISTRA_APP_ENV" required:"true"`
	Port         string `envconfig:"REGISTRA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"REGISTRA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"REGISTRA_LOG_WARN_STACK" default:"false"`

	// CORSOrigins lists the back-office frontends allowed to call the API.
	CORSOrigins []string `envconfig:"REGISTRA_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"REGISTRA_DB_DSN"`
	Driver string `envconfig:"REGISTRA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"REGISTRA_DB_HOST"`
	LegacyPort     int    `envconfig:"REGISTRA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"REGISTRA_DB_USER"`
	LegacyPassword string `envconfig:"REGISTRA_DB_PASSWORD"`
	LegacyName     string `envconfig:"REGISTRA_DB_NAME"`
	LegacySSLMode  string `envconfig:"REGISTRA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REGISTRA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REGISTRA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REGISTRA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REGISTRA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REGISTRA_REDIS_URL"`
	Address      string        `envconfig:"REGISTRA_REDIS_ADDR"`
	Password     string        `envconfig:"REGISTRA_REDIS_PASSWORD"`
	DB           int           `envconfig:"REGISTRA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REGISTRA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REGISTRA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REGISTRA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REGISTRA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REGISTRA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RegisterConfig tunes drawer reconciliation behavior.
type RegisterConfig struct {
	// MethodCacheTTL bounds how long the payment-method registry may be
	// served from cache before re-reading the database.
	MethodCacheTTL time.Duration `envconfig:"REGISTRA_METHOD_CACHE_TTL" default:"5m"`
}

// RateLimitConfig throttles the drawer-mutating surfaces per client IP.
// A zero limit or window disables the limiter for that surface.
type RateLimitConfig struct {
	Window         time.Duration `envconfig:"REGISTRA_RATE_LIMIT_WINDOW" default:"1m"`
	SalesLimit     int           `envconfig:"REGISTRA_RATE_LIMIT_SALES" default:"120"`
	RegistersLimit int           `envconfig:"REGISTRA_RATE_LIMIT_REGISTERS" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"REGISTRA_AUTO_MIGRATE" default:"false"`
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
