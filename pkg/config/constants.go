package config

// EnvPrefix is passed to envconfig; individual fields carry fully
// qualified env names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "MINTMOTION_DB_DSN"
	EnvDBHost = "MINTMOTION_DB_HOST"
	EnvDBUser = "MINTMOTION_DB_USER"
	EnvDBName = "MINTMOTION_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
