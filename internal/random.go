package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

const (
	refreshTokenSize      = 32
	verificationTokenSize = 32
)

var ErrTokenFormat = errors.New("invalid token format")

// NewRefreshToken returns a base64url (unpadded) encoding of 32 random bytes.
func NewRefreshToken() (string, error) {
	var raw [refreshTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// CheckRefreshToken rejects values that cannot have been produced by
// NewRefreshToken without touching any store.
func CheckRefreshToken(token string) error {
	if len(token) != base64.RawURLEncoding.EncodedLen(refreshTokenSize) {
		return ErrTokenFormat
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != refreshTokenSize {
		return ErrTokenFormat
	}
	return nil
}

// NewVerificationToken returns 32 random bytes, hex encoded.
func NewVerificationToken() (string, error) {
	var raw [verificationTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}

// HashToken is the lowercase hex SHA-256 of token. Only this value is persisted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
