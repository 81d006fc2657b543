package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrEthical07/authcore"
)

const refreshColumns = `id, user_id, token_hash, expires_at, used_at, revoked_at, created_at`

func scanRefresh(row pgx.Row) (authcore.RefreshTokenRecord, error) {
	var (
		r      authcore.RefreshTokenRecord
		id     uuid.UUID
		userID uuid.UUID
	)
	err := row.Scan(&id, &userID, &r.TokenHash, &r.ExpiresAt, &r.UsedAt, &r.RevokedAt, &r.CreatedAt)
	if err != nil {
		return authcore.RefreshTokenRecord{}, err
	}
	r.ID = id.String()
	r.UserID = userID.String()
	return r, nil
}

// Insert stores a new refresh token row. A duplicate hash is an error.
func (s *Storage) Insert(ctx context.Context, rec authcore.RefreshTokenRecord) error {
	const op = "store.postgres.Insert"

	if err := insertRefresh(ctx, s.db, rec); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertRefresh(ctx context.Context, q querier, rec authcore.RefreshTokenRecord) error {
	userID, err := uuid.Parse(rec.UserID)
	if err != nil {
		return authcore.ErrUserNotFound
	}
	id := uuid.New()
	if rec.ID != "" {
		if parsed, err := uuid.Parse(rec.ID); err == nil {
			id = parsed
		}
	}

	query := `
		INSERT INTO refresh_tokens(id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = q.Exec(ctx, query, id, userID, rec.TokenHash, rec.ExpiresAt, created)
	return err
}

// FindByHash returns the row for hash in any state, or ErrTokenNotFound.
func (s *Storage) FindByHash(ctx context.Context, hash string) (authcore.RefreshTokenRecord, error) {
	const op = "store.postgres.FindByHash"

	query := `SELECT ` + refreshColumns + ` FROM refresh_tokens WHERE token_hash = $1`

	r, err := scanRefresh(s.db.QueryRow(ctx, query, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authcore.RefreshTokenRecord{}, fmt.Errorf("%s: %w", op, authcore.ErrTokenNotFound)
		}
		return authcore.RefreshTokenRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

// Rotate consumes oldHash and inserts next for the same owner in one
// transaction. The conditional update is the serialization point: a
// concurrent rotation of the same row sees zero affected rows and is
// classified from the row's current state.
func (s *Storage) Rotate(ctx context.Context, oldHash string, next authcore.RefreshTokenRecord, now time.Time) (authcore.RefreshTokenRecord, error) {
	const op = "store.postgres.Rotate"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return authcore.RefreshTokenRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	consume := `
		UPDATE refresh_tokens SET used_at = $2
		WHERE token_hash = $1
			AND used_at IS NULL
			AND revoked_at IS NULL
			AND expires_at > $2
		RETURNING user_id
	`

	var owner uuid.UUID
	err = tx.QueryRow(ctx, consume, oldHash, now).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return authcore.RefreshTokenRecord{}, fmt.Errorf("%s: %w", op, s.classify(ctx, tx, oldHash))
	}
	if err != nil {
		return authcore.RefreshTokenRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	next.UserID = owner.String()
	if next.ID == "" {
		next.ID = uuid.NewString()
	}
	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}
	if err := insertRefresh(ctx, tx, next); err != nil {
		return authcore.RefreshTokenRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return authcore.RefreshTokenRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	return next, nil
}

func (s *Storage) classify(ctx context.Context, q querier, hash string) error {
	query := `SELECT used_at IS NOT NULL OR revoked_at IS NOT NULL FROM refresh_tokens WHERE token_hash = $1`

	var terminal bool
	if err := q.QueryRow(ctx, query, hash).Scan(&terminal); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authcore.ErrTokenNotFound
		}
		return err
	}
	if terminal {
		return authcore.ErrTokenAlreadyUsed
	}
	return authcore.ErrTokenExpired
}

// RevokeByHash revokes a live row. Used or revoked rows stay as they are.
func (s *Storage) RevokeByHash(ctx context.Context, hash string, now time.Time) error {
	const op = "store.postgres.RevokeByHash"

	query := `
		UPDATE refresh_tokens SET revoked_at = $2
		WHERE token_hash = $1 AND used_at IS NULL AND revoked_at IS NULL
	`

	tag, err := s.db.Exec(ctx, query, hash, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE token_hash = $1)`, hash).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", op, authcore.ErrTokenNotFound)
	}
	return nil
}

// RevokeAllForUser revokes every live row of userID. A malformed id owns no rows.
func (s *Storage) RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	const op = "store.postgres.RevokeAllForUser"

	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, nil
	}

	query := `
		UPDATE refresh_tokens SET revoked_at = $2
		WHERE user_id = $1 AND used_at IS NULL AND revoked_at IS NULL
	`
	tag, err := s.db.Exec(ctx, query, uid, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected(), nil
}

// DeleteExpired removes rows that expired before the given time.
func (s *Storage) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const op = "store.postgres.DeleteExpired"

	tag, err := s.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected(), nil
}
