package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"foodbike/internal/storage/core"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "foodbike"
	unitSegment   = "unit"
	scanBatch     = 100
)

// Config carries connection parameters for the Redis unit store.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store keeps each storage unit as one string key: <prefix>:unit:<name>.
// Keys never expire.
type Store struct {
	client *redis.Client
	prefix string
}

// New connects to Redis and verifies connectivity.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(client, cfg.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Driver() core.Driver { return core.DriverRedis }

func (s *Store) keyBase() string { return s.prefix + ":" + unitSegment + ":" }

func (s *Store) key(unit string) (string, error) {
	if err := core.ValidateUnitName(unit); err != nil {
		return "", err
	}
	return s.keyBase() + unit, nil
}

func (s *Store) Read(ctx context.Context, unit string) ([]byte, error) {
	key, err := s.key(unit)
	if err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.NotFound(unit)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", unit, err)
	}
	return data, nil
}

func (s *Store) Write(ctx context.Context, unit string, data []byte) error {
	key, err := s.key(unit)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", unit, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, unit string) (bool, error) {
	key, err := s.key(unit)
	if err != nil {
		return false, err
	}
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("del %s: %w", unit, err)
	}
	return n > 0, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	base := s.keyBase()
	match := escapeGlob(base+prefix) + "*"
	var (
		cursor uint64
		out    []string
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("scan units: %w", err)
		}
		for _, k := range keys {
			out = append(out, strings.TrimPrefix(k, base))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Close() error { return s.client.Close() }

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
