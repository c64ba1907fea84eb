package config

const EnvPrefix = "PETFOOD"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageProviderGCS = "gcs"
	StorageProviderS3  = "s3"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv      = "PETFOOD_APP_ENV"
	EnvPort        = "PETFOOD_APP_PORT"
	EnvBackendURL  = "NEXT_PUBLIC_BACKEND_URL"
	EnvDBDSN       = "DATABASE_URL"
	EnvDBHost      = "PETFOOD_DB_HOST"
	EnvDBUser      = "PETFOOD_DB_USER"
	EnvDBName      = "PETFOOD_DB_NAME"
	EnvRedisURL    = "PETFOOD_REDIS_URL"
	EnvJWTSecret   = "JWT_SECRET"
	EnvMPToken     = "MP_ACCESS_TOKEN"
	EnvStorage     = "PETFOOD_STORAGE_PROVIDER"
	EnvCORSOrigins = "PETFOOD_CORS_ALLOWED_ORIGINS"
	EnvAdminRoles  = "PETFOOD_ADMIN_ROLES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
