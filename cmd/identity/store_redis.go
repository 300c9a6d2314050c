package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store over Redis.
//
// Layout, with the configured prefix:
//
//	<prefix>account:<id>         hash of the account fields
//	<prefix>username:<norm>      -> id
//	<prefix>email:<norm>         -> id
//
// Create runs one Lua script that checks both index keys and writes all three,
// so two concurrent registrations cannot both claim a username or email.
// On Redis Cluster the prefix must contain a hash tag (e.g. "{stibo}:") so the
// three keys share a slot.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// RedisOption configures the store.
type RedisOption func(*RedisStore)

// DefaultRedisPrefix namespaces every key written by RedisStore.
const DefaultRedisPrefix = "stibo:"

// WithKeyPrefix overrides DefaultRedisPrefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if p := strings.TrimSpace(prefix); p != "" {
			s.prefix = p
		}
	}
}

// NewRedisStore constructs a RedisStore. The client is owned by the caller.
func NewRedisStore(rdb redis.UniversalClient, opts ...RedisOption) (*RedisStore, error) {
	if rdb == nil {
		return nil, fmt.Errorf("identity: nil redis client")
	}
	s := &RedisStore{rdb: rdb, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// KEYS: account, username index, email index.
// ARGV: id, username, email, password_hash, timestamp.
var redisCreateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
  return 'username'
end
if redis.call('EXISTS', KEYS[3]) == 1 then
  return 'email'
end
redis.call('HSET', KEYS[1],
  'id', ARGV[1],
  'username', ARGV[2],
  'email', ARGV[3],
  'password_hash', ARGV[4],
  'created_at', ARGV[5],
  'updated_at', ARGV[5])
redis.call('SET', KEYS[2], ARGV[1])
redis.call('SET', KEYS[3], ARGV[1])
return 'ok'
`)

func (s *RedisStore) FindByIdentifier(ctx context.Context, identifier string) (Account, error) {
	const op = "identity.FindByIdentifier"

	key := NormalizeIdentifier(identifier)
	if key == "" {
		return Account{}, NotFoundError{Op: op, Resource: "account"}
	}

	id, err := s.rdb.Get(ctx, s.usernameKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		id, err = s.rdb.Get(ctx, s.emailKey(key)).Result()
	}
	if errors.Is(err, redis.Nil) {
		return Account{}, NotFoundError{Op: op, Resource: "account"}
	}
	if err != nil {
		return Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.load(ctx, op, id)
}

func (s *RedisStore) FindByID(ctx context.Context, id string) (Account, error) {
	const op = "identity.FindByID"

	id = strings.TrimSpace(id)
	if id == "" {
		return Account{}, NotFoundError{Op: op, Resource: "account"}
	}
	return s.load(ctx, op, id)
}

func (s *RedisStore) Create(ctx context.Context, in CreateAccountInput) (Account, error) {
	const op = "identity.Create"

	in, err := validateCreate(op, in)
	if err != nil {
		return Account{}, err
	}

	id, err := NewAccountID(in.Now)
	if err != nil {
		return Account{}, err
	}

	keys := []string{
		s.accountKey(id),
		s.usernameKey(NormalizeUsername(in.Username)),
		s.emailKey(NormalizeEmail(in.Email)),
	}
	res, err := redisCreateScript.Run(ctx, s.rdb, keys,
		id, in.Username, in.Email, in.PasswordHash, in.Now.Format(time.RFC3339Nano),
	).Text()
	if err != nil {
		return Account{}, fmt.Errorf("%s: %w", op, err)
	}

	switch res {
	case "ok":
	case "username", "email":
		return Account{}, ConflictError{Op: op, Field: res}
	default:
		return Account{}, fmt.Errorf("%s: unexpected script reply %q", op, res)
	}

	return Account{
		ID:           id,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    in.Now,
		UpdatedAt:    in.Now,
	}, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) load(ctx context.Context, op, id string) (Account, error) {
	fields, err := s.rdb.HGetAll(ctx, s.accountKey(id)).Result()
	if err != nil {
		return Account{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(fields) == 0 {
		return Account{}, NotFoundError{Op: op, Resource: "account"}
	}

	a := Account{
		ID:           fields["id"],
		Username:     fields["username"],
		Email:        fields["email"],
		PasswordHash: fields["password_hash"],
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return Account{}, fmt.Errorf("%s: created_at: %w", op, err)
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields["updated_at"]); err != nil {
		return Account{}, fmt.Errorf("%s: updated_at: %w", op, err)
	}
	return a, nil
}

func (s *RedisStore) accountKey(id string) string    { return s.prefix + "account:" + id }
func (s *RedisStore) usernameKey(norm string) string { return s.prefix + "username:" + norm }
func (s *RedisStore) emailKey(norm string) string    { return s.prefix + "email:" + norm }
