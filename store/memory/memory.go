// Package memory implements the authcore store interfaces in process memory.
// It backs tests and single-instance local development; it is not shared
// between processes.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/authcore"
)

var (
	_ authcore.UserStore         = (*Store)(nil)
	_ authcore.RefreshTokenStore = (*Store)(nil)
	_ authcore.VerificationStore = (*Store)(nil)
)

type verification struct {
	userID    string
	expiresAt time.Time
}

// Store holds users, refresh tokens and verification tokens behind one mutex.
type Store struct {
	mu sync.Mutex

	now func() time.Time

	users         map[string]authcore.User
	emails        map[string]string
	refresh       map[string]authcore.RefreshTokenRecord
	verifications map[string]verification
}

func New() *Store {
	return NewWithClock(time.Now)
}

func NewWithClock(now func() time.Time) *Store {
	return &Store{
		now:           now,
		users:         make(map[string]authcore.User),
		emails:        make(map[string]string),
		refresh:       make(map[string]authcore.RefreshTokenRecord),
		verifications: make(map[string]verification),
	}
}

/*
====================================
USERS
====================================
*/

func (s *Store) CreateUser(ctx context.Context, nu authcore.NewUser) (authcore.User, error) {
	if err := ctx.Err(); err != nil {
		return authcore.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[nu.Email]; ok {
		return authcore.User{}, authcore.ErrEmailAlreadyExists
	}
	role := nu.Role
	if role == "" {
		role = authcore.RoleUser
	}
	now := s.now().UTC()
	u := authcore.User{
		ID:           uuid.NewString(),
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u
	s.emails[u.Email] = u.ID
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (authcore.User, error) {
	if err := ctx.Err(); err != nil {
		return authcore.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.emails[email]
	if !ok {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (authcore.User, error) {
	if err := ctx.Err(); err != nil {
		return authcore.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) SetDisabled(ctx context.Context, id string, disabled bool) (authcore.User, error) {
	if err := ctx.Err(); err != nil {
		return authcore.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	switch {
	case disabled && u.Disabled():
		return authcore.User{}, authcore.ErrAlreadyDisabled
	case !disabled && !u.Disabled():
		return authcore.User{}, authcore.ErrAlreadyEnabled
	}

	now := s.now().UTC()
	if disabled {
		u.DisabledAt = &now
	} else {
		u.DisabledAt = nil
	}
	u.UpdatedAt = now
	s.users[id] = u
	return u, nil
}

func (s *Store) MarkEmailVerified(ctx context.Context, id string) error {
	return s.updateUser(ctx, id, func(u *authcore.User) {
		u.EmailVerified = true
	})
}

func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.updateUser(ctx, id, func(u *authcore.User) {
		u.LastLoginAt = &at
	})
}

// SetRole is not part of authcore.UserStore; it seeds admin accounts.
func (s *Store) SetRole(ctx context.Context, id string, role authcore.Role) error {
	return s.updateUser(ctx, id, func(u *authcore.User) {
		u.Role = role
	})
}

func (s *Store) updateUser(ctx context.Context, id string, fn func(*authcore.User)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return authcore.ErrUserNotFound
	}
	fn(&u)
	u.UpdatedAt = s.now().UTC()
	s.users[id] = u
	return nil
}

func (s *Store) ListUsers(ctx context.Context, f authcore.UserFilter) (authcore.UserPage, error) {
	if err := ctx.Err(); err != nil {
		return authcore.UserPage{}, err
	}
	f = f.Normalize()
	search := strings.ToLower(f.Search)

	s.mu.Lock()
	matched := make([]authcore.User, 0, len(s.users))
	for _, u := range s.users {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		if f.EmailVerified != nil && u.EmailVerified != *f.EmailVerified {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		matched = append(matched, u)
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := authcore.UserPage{Total: int64(len(matched)), Page: f.Page, PerPage: f.PerPage}
	start := f.Offset()
	if start < len(matched) {
		end := min(start+f.PerPage, len(matched))
		page.Users = matched[start:end]
	}
	return page, nil
}

func (s *Store) Stats(ctx context.Context) (authcore.UserStats, error) {
	if err := ctx.Err(); err != nil {
		return authcore.UserStats{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var st authcore.UserStats
	for _, u := range s.users {
		st.TotalUsers++
		if u.EmailVerified {
			st.VerifiedUsers++
		}
		if u.Role == authcore.RoleAdmin {
			st.AdminUsers++
		}
		if u.Disabled() {
			st.DisabledUsers++
		}
	}
	return st, nil
}

/*
====================================
REFRESH TOKENS
====================================
*/

func (s *Store) Insert(ctx context.Context, rec authcore.RefreshTokenRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.refresh[rec.TokenHash]; ok {
		return errDuplicateHash
	}
	s.refresh[rec.TokenHash] = rec
	return nil
}

func (s *Store) FindByHash(ctx context.Context, hash string) (authcore.RefreshTokenRecord, error) {
	if err := ctx.Err(); err != nil {
		return authcore.RefreshTokenRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.refresh[hash]
	if !ok {
		return authcore.RefreshTokenRecord{}, authcore.ErrTokenNotFound
	}
	return rec, nil
}

// Rotate checks and consumes the old row and inserts next under one lock,
// which gives the same single-winner outcome as the conditional update.
func (s *Store) Rotate(ctx context.Context, oldHash string, next authcore.RefreshTokenRecord, now time.Time) (authcore.RefreshTokenRecord, error) {
	if err := ctx.Err(); err != nil {
		return authcore.RefreshTokenRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.refresh[oldHash]
	switch {
	case !ok:
		return authcore.RefreshTokenRecord{}, authcore.ErrTokenNotFound
	case old.Terminal():
		return authcore.RefreshTokenRecord{}, authcore.ErrTokenAlreadyUsed
	case !now.Before(old.ExpiresAt):
		return authcore.RefreshTokenRecord{}, authcore.ErrTokenExpired
	}
	if _, dup := s.refresh[next.TokenHash]; dup {
		return authcore.RefreshTokenRecord{}, errDuplicateHash
	}

	used := now
	old.UsedAt = &used
	s.refresh[oldHash] = old

	next.UserID = old.UserID
	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}
	s.refresh[next.TokenHash] = next
	return next, nil
}

// RevokeByHash stamps revoked_at on a live row. Used or already revoked rows
// are left as they are.
func (s *Store) RevokeByHash(ctx context.Context, hash string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.refresh[hash]
	if !ok {
		return authcore.ErrTokenNotFound
	}
	if rec.Terminal() {
		return nil
	}
	rec.RevokedAt = &now
	s.refresh[hash] = rec
	return nil
}

func (s *Store) RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for hash, rec := range s.refresh {
		if rec.UserID != userID || rec.Terminal() {
			continue
		}
		rec.RevokedAt = &now
		s.refresh[hash] = rec
		n++
	}
	return n, nil
}

func (s *Store) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for hash, rec := range s.refresh {
		if rec.ExpiresAt.Before(before) {
			delete(s.refresh, hash)
			n++
		}
	}
	return n, nil
}

/*
====================================
EMAIL VERIFICATIONS
====================================
*/

func (s *Store) CreateVerification(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.verifications[tokenHash] = verification{userID: userID, expiresAt: expiresAt}
	return nil
}

func (s *Store) ConsumeVerification(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.verifications[tokenHash]
	if !ok || !now.Before(v.expiresAt) {
		return "", authcore.ErrVerificationInvalid
	}
	delete(s.verifications, tokenHash)
	return v.userID, nil
}

func (s *Store) DeleteExpiredVerifications(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for hash, v := range s.verifications {
		if !v.expiresAt.After(before) {
			delete(s.verifications, hash)
			n++
		}
	}
	return n, nil
}
