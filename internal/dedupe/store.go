package dedupe

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "postflow:dedupe:"
	defaultTTL    = 24 * time.Hour
)

// ErrEmptyKey — пустой ключ claim.
var ErrEmptyKey = errors.New("empty dedupe key")

// Config — конфигурация Store.
type Config struct {
	// Client — Redis клиент (обязательно).
	Client goredis.UniversalClient

	// Prefix — префикс ключей (default: "postflow:dedupe:").
	Prefix string

	// TTL — время жизни claim (default: 24h).
	TTL time.Duration
}

// Store хранит claim-ы в Redis.
type Store struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New создаёт Store.
func New(cfg Config) *Store {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Store{
		client: cfg.Client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// NewClient создаёт Redis клиент из URL вида redis://host:6379/0.
func NewClient(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return goredis.NewClient(opts), nil
}

// Claim захватывает ключ. false — ключ уже захвачен ранее.
func (s *Store) Claim(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	ok, err := s.client.SetNX(ctx, s.prefix+key, time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

// Release освобождает ключ, чтобы следующая попытка могла повторить эффект.
func (s *Store) Release(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

// Claimed сообщает, захвачен ли ключ.
func (s *Store) Claimed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check %s: %w", key, err)
	}
	return n > 0, nil
}
