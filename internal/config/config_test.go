package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Storage.Driver != "fs" || cfg.Storage.FSRoot != "./data" {
		t.Fatalf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if !cfg.App.IsDev() {
		t.Fatalf("expected dev env by default, got %q", cfg.App.Env)
	}
	if cfg.Seed.RandomSeed != 20240601 {
		t.Fatalf("unexpected seed %d", cfg.Seed.RandomSeed)
	}
	if cfg.Password.ArgonMemoryKB != 65536 || cfg.Password.ArgonKeyLen != 32 {
		t.Fatalf("unexpected password defaults: %+v", cfg.Password)
	}
	if cfg.Storage.Mongo.Timeout != 10*time.Second {
		t.Fatalf("unexpected mongo timeout %v", cfg.Storage.Mongo.Timeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvStorageDriver, "Redis")
	t.Setenv(EnvRedisAddr, "cache:6380")
	t.Setenv(EnvRedisDB, "3")
	t.Setenv(EnvSeedDisabled, "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.App.IsProd() {
		t.Fatalf("expected prod env")
	}
	if cfg.Storage.DriverName() != "redis" {
		t.Fatalf("unexpected driver %q", cfg.Storage.DriverName())
	}
	if cfg.Storage.Redis.Addr != "cache:6380" || cfg.Storage.Redis.DB != 3 {
		t.Fatalf("unexpected redis config: %+v", cfg.Storage.Redis)
	}
	if !cfg.Seed.Disabled {
		t.Fatalf("expected seed disabled")
	}
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv(EnvStorageDriver, "cassandra")
	if _, err := Load(); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestLoad_DriverRequiresSettings(t *testing.T) {
	cases := map[string]string{
		"postgres": EnvPostgresDSN,
		"s3":       EnvS3Bucket,
		"mongo":    EnvMongoURI,
	}
	for driver, env := range cases {
		t.Run(driver, func(t *testing.T) {
			t.Setenv(EnvStorageDriver, driver)
			if _, err := Load(); err == nil {
				t.Fatalf("expected missing %s to fail", env)
			}
			t.Setenv(env, "value")
			if _, err := Load(); err != nil {
				t.Fatalf("expected %s to satisfy %s driver: %v", env, driver, err)
			}
		})
	}
}
