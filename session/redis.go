package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisTimeout = 3 * time.Second

// RedisStore persists the credential pair in Redis so the session survives
// bridge restarts and is visible to every replica sharing the same keyspace,
// the way per-origin storage is shared across tabs. Token and user live under
// two fixed keys; writes are last-writer-wins.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

var _ Store = (*RedisStore)(nil)

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithTimeout sets the per-operation timeout (default 3s).
func WithTimeout(d time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		s.timeout = d
	}
}

// NewRedisStore creates a Redis-backed session store. The prefix namespaces
// the two keys, e.g. "admin-bridge:session".
func NewRedisStore(client *redis.Client, prefix string, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("[NewRedisStore] redis client is required")
	}
	if prefix == "" {
		return nil, fmt.Errorf("[NewRedisStore] key prefix is required")
	}

	s := &RedisStore{
		client:  client,
		prefix:  prefix,
		timeout: defaultRedisTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *RedisStore) tokenKey() string { return s.prefix + ":token" }
func (s *RedisStore) userKey() string  { return s.prefix + ":user" }

// Set persists both values, replacing whatever was there.
func (s *RedisStore) Set(token, user string) error {
	ctx, cancel := s.opContext()
	defer cancel()

	if err := s.client.MSet(ctx, s.tokenKey(), token, s.userKey(), user).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Get retrieves the current pair. Missing keys come back as zero values.
func (s *RedisStore) Get() (Session, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	values, err := s.client.MGet(ctx, s.tokenKey(), s.userKey()).Result()
	if err != nil {
		return Session{}, fmt.Errorf("redis get session: %w", err)
	}

	var session Session
	if token, ok := values[0].(string); ok {
		session.Token = token
	}
	if user, ok := values[1].(string); ok {
		session.User = user
	}
	return session, nil
}

// Clear removes both values.
func (s *RedisStore) Clear() error {
	ctx, cancel := s.opContext()
	defer cancel()

	if err := s.client.Del(ctx, s.tokenKey(), s.userKey()).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}

// opContext bounds each Redis call. The Store contract is synchronous, so the
// deadline lives here rather than on the interface.
func (s *RedisStore) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}
