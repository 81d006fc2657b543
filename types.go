package authcore

import (
	"context"
	"time"
)

// Role is the authorization role carried in access tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the account record read by the engine.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Role          Role
	EmailVerified bool
	DisabledAt    *time.Time
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Disabled reports whether the account is disabled.
func (u User) Disabled() bool { return u.DisabledAt != nil }

// NewUser is the input to UserStore.CreateUser.
type NewUser struct {
	Email        string
	PasswordHash string
	Role         Role
}

// UserFilter selects a page of users for administration.
type UserFilter struct {
	Page          int
	PerPage       int
	Role          *Role
	EmailVerified *bool
	Search        string
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Normalize applies paging defaults: page >= 1, per_page in [1, 100] with 20
// when unset.
func (f UserFilter) Normalize() UserFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PerPage == 0:
		f.PerPage = defaultPerPage
	case f.PerPage < 1:
		f.PerPage = 1
	case f.PerPage > maxPerPage:
		f.PerPage = maxPerPage
	}
	return f
}

// Offset is the row offset of the filter's page.
func (f UserFilter) Offset() int {
	return (f.Page - 1) * f.PerPage
}

// UserPage is one page of an administrative user listing.
type UserPage struct {
	Users      []User
	Total      int64
	Page       int
	PerPage    int
	TotalPages int
}

// UserStats aggregates account counts.
type UserStats struct {
	TotalUsers    int64
	VerifiedUsers int64
	AdminUsers    int64
	DisabledUsers int64
}

// RefreshTokenRecord is a persisted refresh token. The raw token is never stored.
type RefreshTokenRecord struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Terminal reports whether the row has been used or revoked.
func (r RefreshTokenRecord) Terminal() bool {
	return r.UsedAt != nil || r.RevokedAt != nil
}

// Identity is the authenticated principal of a request.
type Identity struct {
	SubjectID string
	Role      Role
	JTI       string
	ExpiresAt time.Time
}

// Tokens is the result of a successful login or refresh.
type Tokens struct {
	AccessToken      string
	TokenType        string
	ExpiresIn        time.Duration
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// UserStore is the relational user repository.
type UserStore interface {
	CreateUser(ctx context.Context, u NewUser) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	// SetDisabled returns ErrAlreadyDisabled / ErrAlreadyEnabled when no change applies.
	SetDisabled(ctx context.Context, id string, disabled bool) (User, error)
	MarkEmailVerified(ctx context.Context, id string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	ListUsers(ctx context.Context, f UserFilter) (UserPage, error)
	Stats(ctx context.Context) (UserStats, error)
}

// RefreshTokenStore persists hashed refresh tokens.
//
// Rotate must mark the row identified by oldHash used and insert next in one
// transaction, using a conditional update so that of two concurrent rotations
// of the same hash exactly one succeeds; the other returns ErrTokenAlreadyUsed.
// next.UserID is overwritten with the owner of the consumed row.
type RefreshTokenStore interface {
	Insert(ctx context.Context, rec RefreshTokenRecord) error
	// FindByHash returns the row in whatever state it is, or ErrTokenNotFound.
	FindByHash(ctx context.Context, hash string) (RefreshTokenRecord, error)
	// Rotate returns the inserted record, never the consumed one. A row that
	// is not live yields ErrTokenNotFound, ErrTokenAlreadyUsed or
	// ErrTokenExpired; used or revoked wins over expired.
	Rotate(ctx context.Context, oldHash string, next RefreshTokenRecord, now time.Time) (RefreshTokenRecord, error)
	// RevokeByHash revokes a live row. Used or revoked rows are left unchanged
	// without error; an unknown hash yields ErrTokenNotFound.
	RevokeByHash(ctx context.Context, hash string, now time.Time) error
	// RevokeAllForUser revokes every live row of userID and returns the count.
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// VerificationStore persists hashed email-verification tokens.
type VerificationStore interface {
	CreateVerification(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	// ConsumeVerification deletes the matching unexpired row and returns its
	// user id, or ErrVerificationInvalid.
	ConsumeVerification(ctx context.Context, tokenHash string, now time.Time) (string, error)
	DeleteExpiredVerifications(ctx context.Context, before time.Time) (int64, error)
}

// EmailSender delivers verification emails.
type EmailSender interface {
	SendVerificationEmail(ctx context.Context, to, token string) error
}
