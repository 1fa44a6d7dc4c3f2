package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisCodePrefix = "oauth:code:"
	redisUsedPrefix = "oauth:code_used:"
)

// consumeScript is the atomic check-and-set for MarkUsed: it refuses to flip
// a code that no longer exists (expired via TTL) or whose used marker is
// already present, all inside a single Redis script execution.
var consumeScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
if redis.call("EXISTS", KEYS[2]) == 1 then
  return 0
end
redis.call("SET", KEYS[2], "1", "EX", ARGV[1])
return 1
`)

// RedisCodeStore keeps authorization codes in Redis with the code TTL applied
// as key expiry, so expired codes vanish without a sweeper. Meant for
// horizontally scaled deployments that do not want code exchange hitting the
// relational database.
type RedisCodeStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client, now: time.Now}
}

func (s *RedisCodeStore) Store(ctx context.Context, code string, grant Grant) error {
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = s.now()
	}
	payload, err := json.Marshal(grant)
	if err != nil {
		return err
	}

	// NX guards against the astronomically unlikely code collision; reusing a
	// live code would silently merge two grants.
	ok, err := s.client.SetNX(ctx, redisCodePrefix+code, payload, CodeTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("authorization code collision")
	}
	return nil
}

func (s *RedisCodeStore) Retrieve(ctx context.Context, code string) (*Grant, error) {
	payload, err := s.client.Get(ctx, redisCodePrefix+code).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	used, err := s.client.Exists(ctx, redisUsedPrefix+code).Result()
	if err != nil {
		return nil, err
	}
	if used == 1 {
		return nil, ErrCodeNotFound
	}

	var grant Grant
	if err := json.Unmarshal(payload, &grant); err != nil {
		return nil, err
	}
	// The key TTL already bounds the lifetime; re-check against CreatedAt so
	// correctness never depends on Redis having expired the key yet.
	if grant.Expired(s.now()) {
		return nil, ErrCodeNotFound
	}
	return &grant, nil
}

func (s *RedisCodeStore) MarkUsed(ctx context.Context, code string) (bool, error) {
	keys := []string{redisCodePrefix + code, redisUsedPrefix + code}
	flipped, err := consumeScript.Run(ctx, s.client, keys, int(CodeTTL.Seconds())).Int()
	if err != nil {
		return false, err
	}
	return flipped == 1, nil
}
