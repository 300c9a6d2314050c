package credential

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jfafa/Stibo-auth/cmd/identity"
	"github.com/Jfafa/Stibo-auth/cmd/security/password"
	"github.com/Jfafa/Stibo-auth/cmd/security/token"
)

func cheapPool() *password.Pool {
	cfg := password.DefaultConfig()
	cfg.Params.MemoryKiB = 1024
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1
	return password.NewPool(cfg, 2)
}

type countingIssuer struct {
	inner *token.Service
	calls atomic.Int32
}

func (c *countingIssuer) Issue(cl token.Claims, ttl time.Duration) (string, error) {
	c.calls.Add(1)
	return c.inner.Issue(cl, ttl)
}

type countingHasher struct {
	Hasher
	verifies atomic.Int32
}

func (c *countingHasher) Verify(ctx context.Context, pw, hash string) (bool, error) {
	c.verifies.Add(1)
	return c.Hasher.Verify(ctx, pw, hash)
}

type fixture struct {
	svc    *Service
	store  *identity.MemoryStore
	tokens *token.Service
	issuer *countingIssuer
	hasher *countingHasher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	tokens, err := token.NewService(token.Config{Secret: []byte("0123456789abcdef0123456789abcdef")})
	require.NoError(t, err)

	f := fixture{
		store:  identity.NewMemoryStore(),
		tokens: tokens,
		issuer: &countingIssuer{inner: tokens},
		hasher: &countingHasher{Hasher: cheapPool()},
	}
	f.svc, err = NewService(f.store, f.hasher, f.issuer)
	require.NoError(t, err)
	return f
}

func TestRegister_IssuesTokenForNewAccount(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.User.Username)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.NotEmpty(t, res.User.ID)

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.SubjectID)
	assert.Equal(t, "alice", claims.Username)

	stored, err := f.store.FindByID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", stored.PasswordHash)
	assert.Contains(t, stored.PasswordHash, "$argon2id$")
}

func TestRegister_UsesClockAndTokenTTL(t *testing.T) {
	t.Parallel()
	tokens, err := token.NewService(token.Config{Secret: []byte("0123456789abcdef0123456789abcdef")})
	require.NoError(t, err)

	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewService(identity.NewMemoryStore(), cheapPool(), tokens,
		WithClock(func() time.Time { return fixed }),
		WithTokenTTL(10*time.Minute),
	)
	require.NoError(t, err)

	res, err := svc.Register(context.Background(), RegisterInput{Username: "carol", Email: "c@x.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.True(t, res.User.CreatedAt.Equal(fixed), "created_at=%v", res.User.CreatedAt)
	assert.True(t, res.User.UpdatedAt.Equal(fixed), "updated_at=%v", res.User.UpdatedAt)

	claims, err := tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt))
}

func TestRegister_ConflictIssuesNoToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "Secret123"})
	require.NoError(t, err)
	issued := f.issuer.calls.Load()

	_, err = f.svc.Register(ctx, RegisterInput{Username: "ALICE", Email: "b@x.com", Password: "Another123"})
	require.ErrorIs(t, err, ErrConflict)
	var ce ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "username", ce.Field)
	assert.Equal(t, issued, f.issuer.calls.Load(), "no token on conflict")

	_, err = f.svc.Register(ctx, RegisterInput{Username: "bob", Email: "A@x.com", Password: "Another123"})
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "email", ce.Field)

	// The first account still logs in with its own password.
	res, err := f.svc.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, res.User.ID)
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"missing username", RegisterInput{Email: "a@x.com", Password: "Secret123"}, "username"},
		{"username with at sign", RegisterInput{Username: "a@b", Email: "a@x.com", Password: "Secret123"}, "username"},
		{"username with space", RegisterInput{Username: "al ice", Email: "a@x.com", Password: "Secret123"}, "username"},
		{"missing email", RegisterInput{Username: "alice", Password: "Secret123"}, "email"},
		{"bad email", RegisterInput{Username: "alice", Email: "not-an-email", Password: "Secret123"}, "email"},
		{"named email", RegisterInput{Username: "alice", Email: "Alice <a@x.com>", Password: "Secret123"}, "email"},
		{"missing password", RegisterInput{Username: "alice", Email: "a@x.com"}, "password"},
		{"short password", RegisterInput{Username: "alice", Email: "a@x.com", Password: "short"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tt.in)
			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Zero(t, f.issuer.calls.Load())
}

func TestLogin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "Secret123"})
	require.NoError(t, err)

	for _, ident := range []string{"alice", "Alice", "a@x.com", " A@X.com "} {
		res, err := f.svc.Login(ctx, ident, "Secret123")
		require.NoError(t, err, ident)
		assert.Equal(t, reg.User.ID, res.User.ID)
		assert.NotEmpty(t, res.Token)
	}

	_, err = f.svc.Login(ctx, "alice", "wrong")
	reason, ok := UnauthorizedReason(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, BadPassword, reason)
	assert.ErrorIs(t, err, ErrUnauthorized)

	before := f.hasher.verifies.Load()
	_, err = f.svc.Login(ctx, "ghost", "Secret123")
	reason, ok = UnauthorizedReason(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, UnknownIdentifier, reason)
	assert.Equal(t, before+1, f.hasher.verifies.Load(), "unknown identifier still spends a verify")

	_, err = f.svc.Login(ctx, " ", "Secret123")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.Login(ctx, "alice", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWhoAmI(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "Secret123"})
	require.NoError(t, err)

	u, err := f.svc.WhoAmI(ctx, identity.Principal{SubjectID: reg.User.ID})
	require.NoError(t, err)
	assert.Equal(t, reg.User, u)

	require.True(t, f.store.Delete(ctx, reg.User.ID))
	_, err = f.svc.WhoAmI(ctx, identity.Principal{SubjectID: reg.User.ID})
	var nf NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, reg.User.ID, nf.ID)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

type brokenStore struct{ identity.Store }

var errStoreDown = errors.New("store down")

func (brokenStore) FindByIdentifier(context.Context, string) (identity.Account, error) {
	return identity.Account{}, errStoreDown
}

func (brokenStore) FindByID(context.Context, string) (identity.Account, error) {
	return identity.Account{}, errStoreDown
}

func (brokenStore) Create(context.Context, identity.CreateAccountInput) (identity.Account, error) {
	return identity.Account{}, errStoreDown
}

func TestStoreFailuresAreInternal(t *testing.T) {
	t.Parallel()
	tokens, err := token.NewService(token.Config{Secret: []byte("0123456789abcdef0123456789abcdef")})
	require.NoError(t, err)
	svc, err := NewService(brokenStore{}, cheapPool(), tokens)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "Secret123"})
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, errStoreDown)

	_, err = svc.Login(ctx, "alice", "Secret123")
	assert.ErrorIs(t, err, ErrInternal)

	_, err = svc.WhoAmI(ctx, identity.Principal{SubjectID: "x"})
	assert.ErrorIs(t, err, ErrInternal)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestNewService_NilDependencies(t *testing.T) {
	t.Parallel()
	_, err := NewService(nil, cheapPool(), &countingIssuer{})
	assert.ErrorIs(t, err, ErrInternal)
}
