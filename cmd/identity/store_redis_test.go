package identity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisStore(t *testing.T, opts ...RedisOption) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s, err := NewRedisStore(rdb, opts...)
	require.NoError(t, err)
	return s, mr
}

func TestRedisStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s, _ := newMiniredisStore(t)
		return s
	})
}

func TestRedisStore_KeyLayout(t *testing.T) {
	s, mr := newMiniredisStore(t, WithKeyPrefix("{auth}:"))
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	a, err := s.Create(ctx, CreateAccountInput{Username: "Alice", Email: "A@x.com", PasswordHash: "h", Now: now})
	require.NoError(t, err)

	got, err := mr.Get("{auth}:username:alice")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got)

	got, err = mr.Get("{auth}:email:a@x.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got)

	assert.Equal(t, "Alice", mr.HGet("{auth}:account:"+a.ID, "username"))
	assert.Equal(t, now.Format(time.RFC3339Nano), mr.HGet("{auth}:account:"+a.ID, "created_at"))
}

func TestRedisStore_DanglingIndexIsNotFound(t *testing.T) {
	s, mr := newMiniredisStore(t)
	require.NoError(t, mr.Set(DefaultRedisPrefix+"username:ghost", "01HZZZZZZZZZZZZZZZZZZZZZZZ"))

	_, err := s.FindByIdentifier(context.Background(), "ghost")
	assert.True(t, IsNotFound(err))
}

func TestRedisStore_Unavailable(t *testing.T) {
	s, mr := newMiniredisStore(t)
	mr.Close()

	_, err := s.FindByIdentifier(context.Background(), "alice")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Error(t, s.Ping(context.Background()))
}

func TestNewRedisStore_NilClient(t *testing.T) {
	_, err := NewRedisStore(nil)
	assert.Error(t, err)
}
