package config

// EnvPrefix scopes all envconfig lookups.
const EnvPrefix = "VENDORPORTAL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "VENDORPORTAL_APP_ENV"
	EnvDBDSN  = "VENDORPORTAL_DB_DSN"
	EnvDBHost = "VENDORPORTAL_DB_HOST"
	EnvDBUser = "VENDORPORTAL_DB_USER"
	EnvDBName = "VENDORPORTAL_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
