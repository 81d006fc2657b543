package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/MrEthical07/authcore"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	_ authcore.UserStore         = (*Storage)(nil)
	_ authcore.RefreshTokenStore = (*Storage)(nil)
	_ authcore.VerificationStore = (*Storage)(nil)
)

// Storage implements the authcore user, refresh-token and verification
// stores on a pgx pool.
type Storage struct {
	db *pgxpool.Pool
}

// New opens a pool for dbURL and pings it.
func New(ctx context.Context, dbURL string) (*Storage, error) {
	const op = "store.postgres.New"

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// NewFromPool wraps an existing pool. Close will close it.
func NewFromPool(db *pgxpool.Pool) *Storage {
	return &Storage{db: db}
}

// Close closes the underlying pool.
func (s *Storage) Close() {
	s.db.Close()
}

// Ping checks that the database answers; authd uses it for readiness.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Migrate applies the embedded migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	const op = "store.postgres.Migrate"

	db := stdlib.OpenDBFromPool(s.db)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
