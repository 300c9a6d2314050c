package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountCols = []string{"id", "username", "email", "password_hash", "created_at", "updated_at"}

func newMockStore(t *testing.T, opts ...PostgresOption) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	s, err := NewPostgresStore(mock, opts...)
	require.NoError(t, err)
	return s, mock
}

func TestPostgresStore_FindByIdentifier(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		identifier string
		setup      func(m pgxmock.PgxPoolIface)
		wantID     string
		wantErr    func(error) bool
	}{
		{
			name:       "normalizes and matches",
			identifier: "  Alice ",
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery(`FROM "stibo"."accounts"\s+WHERE username_norm = \$1 OR email_norm = \$1`).
					WithArgs("alice").
					WillReturnRows(pgxmock.NewRows(accountCols).
						AddRow("01HZX0000000000000000000AB", "Alice", "a@x.com", "hash", now, now))
			},
			wantID: "01HZX0000000000000000000AB",
		},
		{
			name:       "no rows is not found",
			identifier: "ghost",
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery(`FROM "stibo"."accounts"`).
					WithArgs("ghost").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: IsNotFound,
		},
		{
			name:       "blank identifier skips the query",
			identifier: "   ",
			setup:      func(pgxmock.PgxPoolIface) {},
			wantErr:    IsNotFound,
		},
		{
			name:       "driver failure is not a not-found",
			identifier: "alice",
			setup: func(m pgxmock.PgxPoolIface) {
				m.ExpectQuery(`FROM "stibo"."accounts"`).
					WithArgs("alice").
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: func(err error) bool { return err != nil && !IsNotFound(err) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, mock := newMockStore(t)
			tt.setup(mock)

			got, err := s.FindByIdentifier(context.Background(), tt.identifier)
			if tt.wantErr != nil {
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, got.ID)
				assert.Equal(t, "hash", got.PasswordHash)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_FindByID(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t, WithSchema("auth"))
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	mock.ExpectQuery(`FROM "auth"."accounts" WHERE id = \$1`).
		WithArgs("01HZX0000000000000000000AB").
		WillReturnRows(pgxmock.NewRows(accountCols).
			AddRow("01HZX0000000000000000000AB", "alice", "a@x.com", "hash", created, created))

	got, err := s.FindByID(context.Background(), "01HZX0000000000000000000AB")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
	assert.True(t, got.CreatedAt.Equal(created))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Create(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		err       error
		wantField string
		wantOther bool
	}{
		{name: "inserted"},
		{
			name:      "username constraint",
			err:       &pgconn.PgError{Code: "23505", ConstraintName: "uq_accounts_username_norm"},
			wantField: "username",
		},
		{
			name:      "email constraint",
			err:       &pgconn.PgError{Code: "23505", ConstraintName: "uq_accounts_email_norm"},
			wantField: "email",
		},
		{
			name:      "check violation is not a conflict",
			err:       &pgconn.PgError{Code: "23514", ConstraintName: "ck_accounts_email_nonempty"},
			wantOther: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, mock := newMockStore(t)

			exp := mock.ExpectExec(`INSERT INTO "stibo"."accounts"`).
				WithArgs(pgxmock.AnyArg(), "Alice", "alice", "A@x.com", "a@x.com", "hash", now)
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			got, err := s.Create(context.Background(), CreateAccountInput{
				Username: " Alice ", Email: "A@x.com", PasswordHash: "hash", Now: now,
			})

			switch {
			case tt.wantField != "":
				field, ok := ConflictField(err)
				require.True(t, ok, "expected conflict, got %v", err)
				assert.Equal(t, tt.wantField, field)
			case tt.wantOther:
				require.Error(t, err)
				assert.False(t, IsConflict(err))
			default:
				require.NoError(t, err)
				assert.Len(t, got.ID, 26)
				assert.Equal(t, "Alice", got.Username)
				assert.True(t, got.CreatedAt.Equal(now))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNewPostgresStore_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewPostgresStore(nil)
	assert.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	for _, schema := range []string{"", "bad-name", `x"; DROP TABLE y; --`} {
		_, err := NewPostgresStore(mock, WithSchema(schema))
		assert.Error(t, err, schema)
	}
}

func TestPgClassifyUniqueViolation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err       error
		wantField string
		wantOK    bool
	}{
		{&pgconn.PgError{Code: "23505", ConstraintName: "accounts_username_key"}, "username", true},
		{&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_norm_idx"}, "email", true},
		{&pgconn.PgError{Code: "23505", ConstraintName: "accounts_pkey"}, "unique", true},
		{&pgconn.PgError{Code: "40001"}, "", false},
		{errors.New("plain"), "", false},
	}
	for _, c := range cases {
		field, ok := pgClassifyUniqueViolation(c.err)
		assert.Equal(t, c.wantOK, ok, c.err)
		assert.Equal(t, c.wantField, field, c.err)
	}
}
