package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite exercises the Store contract against any implementation.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("create then find by id, username and email", func(t *testing.T) {
		s := newStore(t)

		created, err := s.Create(ctx, CreateAccountInput{
			Username: "alice", Email: "a@x.com", PasswordHash: "$argon2id$stub", Now: now,
		})
		require.NoError(t, err)
		assert.Len(t, created.ID, 26)
		assert.Equal(t, "alice", created.Username)
		assert.Equal(t, "a@x.com", created.Email)
		assert.True(t, created.CreatedAt.Equal(now))
		assert.True(t, created.UpdatedAt.Equal(now))

		for _, ident := range []string{"alice", "ALICE", " alice ", "a@x.com", "A@X.COM"} {
			got, err := s.FindByIdentifier(ctx, ident)
			require.NoError(t, err, ident)
			assert.Equal(t, created.ID, got.ID, ident)
			assert.Equal(t, "$argon2id$stub", got.PasswordHash)
		}

		got, err := s.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, created.Username, got.Username)
		assert.Equal(t, created.Email, got.Email)
		assert.True(t, got.CreatedAt.Equal(now))
	})

	t.Run("duplicate username conflicts and leaves the first account intact", func(t *testing.T) {
		s := newStore(t)

		first, err := s.Create(ctx, CreateAccountInput{Username: "alice", Email: "a@x.com", PasswordHash: "h1", Now: now})
		require.NoError(t, err)

		_, err = s.Create(ctx, CreateAccountInput{Username: "Alice", Email: "other@x.com", PasswordHash: "h2", Now: now})
		require.Error(t, err)
		assert.True(t, IsConflict(err))
		field, _ := ConflictField(err)
		assert.Equal(t, "username", field)

		got, err := s.FindByIdentifier(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, "h1", got.PasswordHash)

		_, err = s.FindByIdentifier(ctx, "other@x.com")
		assert.True(t, IsNotFound(err), "losing create must not leave an email index behind")
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Create(ctx, CreateAccountInput{Username: "alice", Email: "a@x.com", PasswordHash: "h1", Now: now})
		require.NoError(t, err)

		_, err = s.Create(ctx, CreateAccountInput{Username: "bob", Email: "A@x.com", PasswordHash: "h2", Now: now})
		require.Error(t, err)
		field, ok := ConflictField(err)
		require.True(t, ok)
		assert.Equal(t, "email", field)
	})

	t.Run("missing accounts are not found", func(t *testing.T) {
		s := newStore(t)

		_, err := s.FindByIdentifier(ctx, "ghost")
		assert.True(t, IsNotFound(err))
		_, err = s.FindByIdentifier(ctx, "  ")
		assert.True(t, IsNotFound(err))
		_, err = s.FindByID(ctx, "01HZZZZZZZZZZZZZZZZZZZZZZZ")
		assert.True(t, IsNotFound(err))
	})

	t.Run("invalid input is rejected", func(t *testing.T) {
		s := newStore(t)

		for _, in := range []CreateAccountInput{
			{Username: "", Email: "a@x.com", PasswordHash: "h"},
			{Username: "alice", Email: " ", PasswordHash: "h"},
			{Username: "alice", Email: "a@x.com", PasswordHash: ""},
		} {
			_, err := s.Create(ctx, in)
			assert.True(t, IsInvalidInput(err), "%+v", in)
		}
	})

	t.Run("concurrent duplicate registrations have exactly one winner", func(t *testing.T) {
		s := newStore(t)

		const n = 16
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			wins      int
			conflicts int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Create(ctx, CreateAccountInput{Username: "race", Email: "race@x.com", PasswordHash: "h", Now: now})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case IsConflict(err):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
		assert.Equal(t, n-1, conflicts)
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, newStore(t).Ping(ctx))
	})
}
