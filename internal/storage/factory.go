package storage

import (
	"context"
	"fmt"

	"foodbike/internal/config"
	"foodbike/internal/infra/storage/fs"
	"foodbike/internal/infra/storage/memory"
	"foodbike/internal/infra/storage/mongo"
	"foodbike/internal/infra/storage/postgres"
	"foodbike/internal/infra/storage/redis"
	infraS3 "foodbike/internal/infra/storage/s3"
	"foodbike/internal/infra/storage/sqlite"
)

// Memory is the in-process backend. It is exported as a concrete type so
// tests can inject write failures.
type Memory = memory.Store

// Open selects a Store implementation from cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.DriverName() {
	case DriverFilesystem, "":
		return NewFilesystem(cfg.FSRoot)
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(cfg.SQLitePath)
	case DriverPostgres:
		return NewPostgres(ctx, cfg.PostgresDSN)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverRedis:
		return NewRedis(ctx, cfg.Redis)
	case DriverMongo:
		return NewMongo(ctx, cfg.Mongo)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}

// NewFilesystem stores each unit as <root>/<unit>.json.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}

func NewMemory() *Memory {
	return memory.New()
}

func NewSQLite(path string) (Store, error) {
	return sqlite.New(path)
}

func NewPostgres(ctx context.Context, dsn string) (Store, error) {
	return postgres.New(ctx, dsn)
}

func NewS3(ctx context.Context, cfg config.S3Config) (Store, error) {
	return infraS3.New(ctx, infraS3.Config{
		Region:    cfg.Region,
		Bucket:    cfg.Bucket,
		Prefix:    cfg.Prefix,
		Endpoint:  cfg.Endpoint,
		PathStyle: cfg.PathStyle,
	})
}

// NewMockS3ForTests exposes the in-memory S3 fake for cross-package tests.
func NewMockS3ForTests(prefix string) Store { return infraS3.NewMockForTests(prefix) }

func NewRedis(ctx context.Context, cfg config.RedisConfig) (Store, error) {
	return redis.New(ctx, redis.Config{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		Prefix:   cfg.Prefix,
	})
}

func NewMongo(ctx context.Context, cfg config.MongoConfig) (Store, error) {
	return mongo.New(ctx, mongo.Config{
		URI:        cfg.URI,
		Database:   cfg.Database,
		Collection: cfg.Collection,
		Timeout:    cfg.Timeout,
	})
}
