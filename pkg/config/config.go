package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Google        GoogleConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Metrics       MetricsConfig
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
	Env             string        `envconfig:"STOREDASH_APP_ENV" required:"true"`
	Port            string        `envconfig:"STOREDASH_APP_PORT" required:"true"`
	LogLevel        string        `envconfig:"STOREDASH_LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"STOREDASH_LOG_FORMAT" default:"json"`
	LogWarnStack    bool          `envconfig:"STOREDASH_LOG_WARN_STACK" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"STOREDASH_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREDASH_DB_DSN"`
	Driver string `envconfig:"STOREDASH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREDASH_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREDASH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREDASH_DB_USER"`
	LegacyPassword string `envconfig:"STOREDASH_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREDASH_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREDASH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREDASH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREDASH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREDASH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREDASH_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"STOREDASH_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite one.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREDASH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREDASH_REDIS_ADDR"`
	Password     string        `envconfig:"STOREDASH_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREDASH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREDASH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREDASH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREDASH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREDASH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREDASH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"STOREDASH_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"STOREDASH_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"STOREDASH_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"STOREDASH_REFRESH_TOKEN_TTL_MINUTES" default:"1440"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type GoogleConfig struct {
	ClientID     string        `envconfig:"STOREDASH_GOOGLE_CLIENT_ID" required:"true"`
	ClientSecret string        `envconfig:"STOREDASH_GOOGLE_CLIENT_SECRET" required:"true"`
	RedirectURL  string        `envconfig:"STOREDASH_GOOGLE_REDIRECT_URL" required:"true"`
	DiscoveryURL string        `envconfig:"STOREDASH_GOOGLE_DISCOVERY_URL" default:"https://accounts.google.com/.well-known/openid-configuration"`
	StateTTL     time.Duration `envconfig:"STOREDASH_GOOGLE_STATE_TTL" default:"10m"`
	HTTPTimeout  time.Duration `envconfig:"STOREDASH_GOOGLE_HTTP_TIMEOUT" default:"10s"`
}

type AuthRateLimitConfig struct {
	SignInWindow  time.Duration `envconfig:"STOREDASH_AUTH_RATE_LIMIT_SIGNIN_WINDOW" default:"1m"`
	SignInIPLimit int           `envconfig:"STOREDASH_AUTH_RATE_LIMIT_SIGNIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOREDASH_AUTO_MIGRATE" default:"false"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"STOREDASH_METRICS_ENABLED" default:"true"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
