package config

const (
	EnvPrefix = "STOREDASH"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv   = "STOREDASH_APP_ENV"
	EnvPort     = "STOREDASH_APP_PORT"
	EnvDBDSN    = "STOREDASH_DB_DSN"
	EnvDBHost   = "STOREDASH_DB_HOST"
	EnvDBUser   = "STOREDASH_DB_USER"
	EnvDBName   = "STOREDASH_DB_NAME"
	EnvDBDrv    = "STOREDASH_DB_DRIVER"
	EnvRedisURL = "STOREDASH_REDIS_URL"

	EnvJWTSecret              = "STOREDASH_JWT_SECRET"
	EnvJWTIssuer              = "STOREDASH_JWT_ISSUER"
	EnvJWTExpMins             = "STOREDASH_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "STOREDASH_REFRESH_TOKEN_TTL_MINUTES"

	EnvGoogleClientID     = "STOREDASH_GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "STOREDASH_GOOGLE_CLIENT_SECRET"
	EnvGoogleRedirectURL  = "STOREDASH_GOOGLE_REDIRECT_URL"
	EnvGoogleStateTTL     = "STOREDASH_GOOGLE_STATE_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
