package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces credential keys.
const DefaultRedisPrefix = "gh:cred:"

// replaceScript swaps a credential only when the current value matches.
// KEYS[1] = credential key
// ARGV[1] = expected credential
// ARGV[2] = replacement credential
//
// Returns 0 not found, 1 mismatch, 2 replaced.
const replaceScript = `
local cur = redis.call("GET", KEYS[1])
if not cur then
  return 0
end
if cur ~= ARGV[1] then
  return 1
end
redis.call("SET", KEYS[1], ARGV[2])
return 2
`

var replaceLua = redis.NewScript(replaceScript)

const (
	replaceStatusNotFound int64 = 0
	replaceStatusMismatch int64 = 1
	replaceStatusReplaced int64 = 2
)

// RedisStore keeps one string key per user.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore returns a store using prefix for its keys; an empty prefix
// selects DefaultRedisPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
	}
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + userID
}

func (s *RedisStore) Get(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrInvalidUserID
	}

	cred, err := s.redis.Get(ctx, s.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return cred, nil
}

func (s *RedisStore) Put(ctx context.Context, userID, credential string) error {
	if userID == "" {
		return ErrInvalidUserID
	}

	if err := s.redis.Set(ctx, s.key(userID), credential, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Replace(ctx context.Context, userID, old, updated string) error {
	if userID == "" {
		return ErrInvalidUserID
	}

	status, err := replaceLua.Run(ctx, s.redis, []string{s.key(userID)}, old, updated).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch status {
	case replaceStatusReplaced:
		return nil
	case replaceStatusMismatch:
		return ErrConflict
	case replaceStatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("%w: unexpected replace status %d", ErrUnavailable, status)
	}
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidUserID
	}

	if err := s.redis.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
