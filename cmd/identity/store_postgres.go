package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of *pgxpool.Pool used by PostgresStore.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store over PostgreSQL.
//
// The pool is owned by the caller; this store never closes it. Uniqueness is
// enforced by the uq_accounts_username_norm and uq_accounts_email_norm
// constraints, so Create is a single INSERT.
type PostgresStore struct {
	pool   PgxPool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

// DefaultSchema is where the bundled migrations create the accounts table.
const DefaultSchema = "stibo"

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema holding the accounts table.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool PgxPool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: DefaultSchema}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

const accountColumns = `id, username, email, password_hash, created_at, updated_at`

func (s *PostgresStore) FindByIdentifier(ctx context.Context, identifier string) (Account, error) {
	const op = "identity.FindByIdentifier"

	key := NormalizeIdentifier(identifier)
	if key == "" {
		return Account{}, NotFoundError{Op: op, Resource: "account"}
	}

	// A username match wins over an email match.
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+`
		   FROM `+s.table()+`
		  WHERE username_norm = $1 OR email_norm = $1
		  ORDER BY (username_norm = $1) DESC
		  LIMIT 1`,
		key,
	)
	return scanAccount(op, row)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Account, error) {
	const op = "identity.FindByID"

	id = strings.TrimSpace(id)
	if id == "" {
		return Account{}, NotFoundError{Op: op, Resource: "account"}
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM `+s.table()+` WHERE id = $1`,
		id,
	)
	return scanAccount(op, row)
}

func (s *PostgresStore) Create(ctx context.Context, in CreateAccountInput) (Account, error) {
	const op = "identity.Create"

	in, err := validateCreate(op, in)
	if err != nil {
		return Account{}, err
	}

	id, err := NewAccountID(in.Now)
	if err != nil {
		return Account{}, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (
		     id, username, username_norm, email, email_norm, password_hash, created_at, updated_at
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		id,
		in.Username,
		NormalizeUsername(in.Username),
		in.Email,
		NormalizeEmail(in.Email),
		in.PasswordHash,
		in.Now,
	)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return Account{}, ConflictError{Op: op, Field: field}
		}
		return Account{}, fmt.Errorf("%s: %w", op, err)
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

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "accounts"}.Sanitize()
}

func scanAccount(op string, row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, NotFoundError{Op: op, Resource: "account"}
		}
		return Account{}, fmt.Errorf("%s: %w", op, err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	// Prefer stable constraint names, then fall back to substring matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))
	switch {
	case c == "uq_accounts_username_norm", strings.Contains(c, "username"):
		return "username", true
	case c == "uq_accounts_email_norm", strings.Contains(c, "email"):
		return "email", true
	default:
		return "unique", true
	}
}
