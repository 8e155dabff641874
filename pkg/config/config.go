package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "minari"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MINARI_DB_DSN"
	EnvDBHost = "MINARI_DB_HOST"
	EnvDBUser = "MINARI_DB_USER"
	EnvDBName = "MINARI_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	GuestCart    GuestCartConfig
	Cron         CronConfig
	Shipping     ShippingConfig
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
	Env          string `envconfig:"MINARI_APP_ENV" required:"true"`
	Port         string `envconfig:"MINARI_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MINARI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MINARI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MINARI_DB_DSN"`
	Driver string `envconfig:"MINARI_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MINARI_DB_HOST"`
	LegacyPort     int    `envconfig:"MINARI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MINARI_DB_USER"`
	LegacyPassword string `envconfig:"MINARI_DB_PASSWORD"`
	LegacyName     string `envconfig:"MINARI_DB_NAME"`
	LegacySSLMode  string `envconfig:"MINARI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MINARI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MINARI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MINARI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MINARI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
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

type RedisConfig struct {
	URL          string        `envconfig:"MINARI_REDIS_URL"`
	Address      string        `envconfig:"MINARI_REDIS_ADDR"`
	Password     string        `envconfig:"MINARI_REDIS_PASSWORD"`
	DB           int           `envconfig:"MINARI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MINARI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MINARI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MINARI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MINARI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MINARI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// GuestCartConfig bounds how long an anonymous session cart survives in Redis.
type GuestCartConfig struct {
	TTL time.Duration `envconfig:"MINARI_GUEST_CART_TTL" default:"168h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"MINARI_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"MINARI_CRON_LOCK_TTL" default:"2h"`
}

// ShippingConfig drives the shipment ETA heuristic. Provinces listed here are
// treated as the "near" region class and get the shorter delivery offsets.
type ShippingConfig struct {
	NearProvinces []string `envconfig:"MINARI_SHIPPING_NEAR_PROVINCES" default:"Jakarta,West Java,Central Java,East Java,Banten,Yogyakarta"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MINARI_AUTO_MIGRATE" default:"false"`
}
