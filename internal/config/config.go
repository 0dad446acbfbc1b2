package config

import (
	"fmt"
	"strings"
	"time"

	"foodbike/internal/storage/core"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Storage  StorageConfig
	Seed     SeedConfig
	Password PasswordConfig
}

// Load reads FOODBIKE_* variables and validates the selected storage driver.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FOODBIKE_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"FOODBIKE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"FOODBIKE_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"FOODBIKE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type StorageConfig struct {
	Driver      string `envconfig:"FOODBIKE_STORAGE_DRIVER" default:"fs"`
	FSRoot      string `envconfig:"FOODBIKE_STORAGE_FS_ROOT" default:"./data"`
	SQLitePath  string `envconfig:"FOODBIKE_STORAGE_SQLITE_PATH" default:"./foodbike.db"`
	PostgresDSN string `envconfig:"FOODBIKE_STORAGE_POSTGRES_DSN"`
	S3          S3Config
	Redis       RedisConfig
	Mongo       MongoConfig
}

type S3Config struct {
	Bucket    string `envconfig:"FOODBIKE_STORAGE_S3_BUCKET"`
	Region    string `envconfig:"FOODBIKE_STORAGE_S3_REGION" default:"us-east-1"`
	Endpoint  string `envconfig:"FOODBIKE_STORAGE_S3_ENDPOINT"`
	PathStyle bool   `envconfig:"FOODBIKE_STORAGE_S3_PATH_STYLE" default:"false"`
	Prefix    string `envconfig:"FOODBIKE_STORAGE_S3_PREFIX"`
}

type RedisConfig struct {
	Addr     string `envconfig:"FOODBIKE_STORAGE_REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"FOODBIKE_STORAGE_REDIS_PASSWORD"`
	DB       int    `envconfig:"FOODBIKE_STORAGE_REDIS_DB" default:"0"`
	Prefix   string `envconfig:"FOODBIKE_STORAGE_REDIS_PREFIX" default:"foodbike"`
}

type MongoConfig struct {
	URI        string        `envconfig:"FOODBIKE_STORAGE_MONGO_URI"`
	Database   string        `envconfig:"FOODBIKE_STORAGE_MONGO_DATABASE" default:"foodbike"`
	Collection string        `envconfig:"FOODBIKE_STORAGE_MONGO_COLLECTION" default:"units"`
	Timeout    time.Duration `envconfig:"FOODBIKE_STORAGE_MONGO_TIMEOUT" default:"10s"`
}

// SeedConfig controls the reference dataset written by the reconciler.
type SeedConfig struct {
	Disabled   bool   `envconfig:"FOODBIKE_SEED_DISABLED" default:"false"`
	RandomSeed uint64 `envconfig:"FOODBIKE_SEED_RANDOM_SEED" default:"20240601"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FOODBIKE_PASSWORD_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FOODBIKE_PASSWORD_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FOODBIKE_PASSWORD_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FOODBIKE_PASSWORD_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FOODBIKE_PASSWORD_ARGON_KEY_LEN" default:"32"`
}

func (s StorageConfig) validate() error {
	driver := core.Driver(strings.ToLower(strings.TrimSpace(s.Driver)))
	known := false
	for _, d := range core.Drivers() {
		if d == driver {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unsupported storage driver %q", s.Driver)
	}
	switch driver {
	case core.DriverPostgres:
		if s.PostgresDSN == "" {
			return fmt.Errorf("%s is required for the postgres driver", EnvPostgresDSN)
		}
	case core.DriverS3:
		if s.S3.Bucket == "" {
			return fmt.Errorf("%s is required for the s3 driver", EnvS3Bucket)
		}
	case core.DriverMongo:
		if s.Mongo.URI == "" {
			return fmt.Errorf("%s is required for the mongo driver", EnvMongoURI)
		}
	case core.DriverRedis:
		if s.Redis.Addr == "" {
			return fmt.Errorf("%s is required for the redis driver", EnvRedisAddr)
		}
	}
	return nil
}

// DriverName returns the normalized driver identifier.
func (s StorageConfig) DriverName() core.Driver {
	return core.Driver(strings.ToLower(strings.TrimSpace(s.Driver)))
}

// DefaultPasswordConfig mirrors the envconfig defaults for callers that build
// a service without Load.
func DefaultPasswordConfig() PasswordConfig {
	return PasswordConfig{
		ArgonMemoryKB:    64 * 1024,
		ArgonTime:        3,
		ArgonParallelism: 2,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

// DefaultSeedConfig enables seeding with the fixed reference seed.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{RandomSeed: 20240601}
}
