package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MrEthical07/authcore"
)

const userColumns = `id, email, password_hash, role, email_verified, disabled_at, last_login_at, created_at, updated_at`

func scanUser(row pgx.Row) (authcore.User, error) {
	var (
		u    authcore.User
		id   uuid.UUID
		role string
	)
	err := row.Scan(
		&id,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.EmailVerified,
		&u.DisabledAt,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return authcore.User{}, err
	}
	u.ID = id.String()
	u.Role = authcore.Role(role)
	return u, nil
}

// CreateUser inserts a new user with a fresh UUID.
func (s *Storage) CreateUser(ctx context.Context, nu authcore.NewUser) (authcore.User, error) {
	const op = "store.postgres.CreateUser"

	role := nu.Role
	if role == "" {
		role = authcore.RoleUser
	}

	query := `
		INSERT INTO users(id, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query, uuid.New(), nu.Email, nu.PasswordHash, string(role)))
	if err != nil {
		if isUniqueViolation(err) {
			return authcore.User{}, fmt.Errorf("%s: %w", op, authcore.ErrEmailAlreadyExists)
		}
		return authcore.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail matches email case-insensitively.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (authcore.User, error) {
	const op = "store.postgres.GetUserByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	u, err := scanUser(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authcore.User{}, fmt.Errorf("%s: %w", op, authcore.ErrUserNotFound)
		}
		return authcore.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByID returns ErrUserNotFound for unknown or malformed ids.
func (s *Storage) GetUserByID(ctx context.Context, id string) (authcore.User, error) {
	const op = "store.postgres.GetUserByID"

	uid, err := uuid.Parse(id)
	if err != nil {
		return authcore.User{}, fmt.Errorf("%s: %w", op, authcore.ErrUserNotFound)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authcore.User{}, fmt.Errorf("%s: %w", op, authcore.ErrUserNotFound)
		}
		return authcore.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SetDisabled flips disabled_at only when the state actually changes; a
// no-op is reported as ErrAlreadyDisabled or ErrAlreadyEnabled.
func (s *Storage) SetDisabled(ctx context.Context, id string, disabled bool) (authcore.User, error) {
	const op = "store.postgres.SetDisabled"

	uid, err := uuid.Parse(id)
	if err != nil {
		return authcore.User{}, fmt.Errorf("%s: %w", op, authcore.ErrUserNotFound)
	}

	var query string
	if disabled {
		query = `
			UPDATE users SET disabled_at = now(), updated_at = now()
			WHERE id = $1 AND disabled_at IS NULL
			RETURNING ` + userColumns
	} else {
		query = `
			UPDATE users SET disabled_at = NULL, updated_at = now()
			WHERE id = $1 AND disabled_at IS NOT NULL
			RETURNING ` + userColumns
	}

	u, err := scanUser(s.db.QueryRow(ctx, query, uid))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return authcore.User{}, fmt.Errorf("%s: %w", op, err)
	}

	// Either the user is missing or already in the requested state.
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return authcore.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if disabled {
		return authcore.User{}, fmt.Errorf("%s: %w", op, authcore.ErrAlreadyDisabled)
	}
	return authcore.User{}, fmt.Errorf("%s: %w", op, authcore.ErrAlreadyEnabled)
}

// MarkEmailVerified sets email_verified for id.
func (s *Storage) MarkEmailVerified(ctx context.Context, id string) error {
	const op = "store.postgres.MarkEmailVerified"
	return s.execUser(ctx, op, `UPDATE users SET email_verified = TRUE, updated_at = now() WHERE id = $1`, id)
}

// TouchLastLogin records a successful login time.
func (s *Storage) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	const op = "store.postgres.TouchLastLogin"
	return s.execUser(ctx, op, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
}

func (s *Storage) execUser(ctx context.Context, op, query, id string, args ...any) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, authcore.ErrUserNotFound)
	}

	tag, err := s.db.Exec(ctx, query, append([]any{uid}, args...)...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, authcore.ErrUserNotFound)
	}
	return nil
}

// ListUsers returns a filtered page ordered by created_at descending.
func (s *Storage) ListUsers(ctx context.Context, f authcore.UserFilter) (authcore.UserPage, error) {
	const op = "store.postgres.ListUsers"

	f = f.Normalize()

	var (
		where []string
		args  []any
	)
	if f.Role != nil {
		args = append(args, string(*f.Role))
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if f.EmailVerified != nil {
		args = append(args, *f.EmailVerified)
		where = append(where, fmt.Sprintf("email_verified = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		where = append(where, fmt.Sprintf("email ILIKE $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM users`+clause, args...).Scan(&total); err != nil {
		return authcore.UserPage{}, fmt.Errorf("%s: %w", op, err)
	}

	args = append(args, f.PerPage, f.Offset())
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		userColumns, clause, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return authcore.UserPage{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	users := make([]authcore.User, 0, f.PerPage)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return authcore.UserPage{}, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return authcore.UserPage{}, fmt.Errorf("%s: %w", op, err)
	}

	return authcore.UserPage{Users: users, Total: total, Page: f.Page, PerPage: f.PerPage}, nil
}

// Stats counts all, verified, admin and disabled users in one scan.
func (s *Storage) Stats(ctx context.Context) (authcore.UserStats, error) {
	const op = "store.postgres.Stats"

	query := `
		SELECT
			count(*),
			count(*) FILTER (WHERE email_verified),
			count(*) FILTER (WHERE role = 'admin'),
			count(*) FILTER (WHERE disabled_at IS NOT NULL)
		FROM users
	`

	var st authcore.UserStats
	err := s.db.QueryRow(ctx, query).Scan(&st.TotalUsers, &st.VerifiedUsers, &st.AdminUsers, &st.DisabledUsers)
	if err != nil {
		return authcore.UserStats{}, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// SetRole promotes or demotes a user. It is used by the admin seed command
// and is not part of authcore.UserStore.
func (s *Storage) SetRole(ctx context.Context, id string, role authcore.Role) error {
	const op = "store.postgres.SetRole"
	return s.execUser(ctx, op, `UPDATE users SET role = $2, updated_at = now() WHERE id = $1`, id, string(role))
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
