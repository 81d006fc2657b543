package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MrEthical07/authcore"
)

// CreateVerification stores a pending verification token hash for userID.
func (s *Storage) CreateVerification(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	const op = "store.postgres.CreateVerification"

	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, authcore.ErrUserNotFound)
	}

	query := `INSERT INTO email_verifications(token_hash, user_id, expires_at) VALUES ($1, $2, $3)`

	if _, err := s.db.Exec(ctx, query, tokenHash, uid, expiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ConsumeVerification deletes the row in the same statement that checks it,
// so a token can be redeemed at most once.
func (s *Storage) ConsumeVerification(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	const op = "store.postgres.ConsumeVerification"

	query := `
		DELETE FROM email_verifications
		WHERE token_hash = $1 AND expires_at > $2
		RETURNING user_id
	`

	var uid uuid.UUID
	if err := s.db.QueryRow(ctx, query, tokenHash, now).Scan(&uid); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, authcore.ErrVerificationInvalid)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid.String(), nil
}

// DeleteExpiredVerifications removes tokens that expired before the given time.
func (s *Storage) DeleteExpiredVerifications(ctx context.Context, before time.Time) (int64, error) {
	const op = "store.postgres.DeleteExpiredVerifications"

	tag, err := s.db.Exec(ctx, `DELETE FROM email_verifications WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected(), nil
}
