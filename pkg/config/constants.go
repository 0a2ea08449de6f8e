package config

const (
	// EnvPrefix is applied by envconfig to untagged fields.
	EnvPrefix = "servicelane"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SERVICELANE_DB_DSN"
	EnvDBHost = "SERVICELANE_DB_HOST"
	EnvDBUser = "SERVICELANE_DB_USER"
	EnvDBName = "SERVICELANE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
