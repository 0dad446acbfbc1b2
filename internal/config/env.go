package config

// EnvPrefix is the envconfig prefix for every foodbike variable.
const EnvPrefix = "FOODBIKE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv        = "FOODBIKE_APP_ENV"
	EnvLogLevel      = "FOODBIKE_LOG_LEVEL"
	EnvLogFormat     = "FOODBIKE_LOG_FORMAT"
	EnvLogWarnStack  = "FOODBIKE_LOG_WARN_STACK"
	EnvStorageDriver = "FOODBIKE_STORAGE_DRIVER"
	EnvFSRoot        = "FOODBIKE_STORAGE_FS_ROOT"
	EnvSQLitePath    = "FOODBIKE_STORAGE_SQLITE_PATH"
	EnvPostgresDSN   = "FOODBIKE_STORAGE_POSTGRES_DSN"
	EnvS3Bucket      = "FOODBIKE_STORAGE_S3_BUCKET"
	EnvS3Region      = "FOODBIKE_STORAGE_S3_REGION"
	EnvS3Endpoint    = "FOODBIKE_STORAGE_S3_ENDPOINT"
	EnvS3PathStyle   = "FOODBIKE_STORAGE_S3_PATH_STYLE"
	EnvS3Prefix      = "FOODBIKE_STORAGE_S3_PREFIX"
	EnvRedisAddr     = "FOODBIKE_STORAGE_REDIS_ADDR"
	EnvRedisPassword = "FOODBIKE_STORAGE_REDIS_PASSWORD"
	EnvRedisDB       = "FOODBIKE_STORAGE_REDIS_DB"
	EnvRedisPrefix   = "FOODBIKE_STORAGE_REDIS_PREFIX"
	EnvMongoURI      = "FOODBIKE_STORAGE_MONGO_URI"
	EnvMongoDatabase = "FOODBIKE_STORAGE_MONGO_DATABASE"
	EnvMongoColl     = "FOODBIKE_STORAGE_MONGO_COLLECTION"
	EnvMongoTimeout  = "FOODBIKE_STORAGE_MONGO_TIMEOUT"
	EnvSeedDisabled  = "FOODBIKE_SEED_DISABLED"
	EnvSeedRandom    = "FOODBIKE_SEED_RANDOM_SEED"
)
