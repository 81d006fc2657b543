package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minSecretBytes = 32

var (
	// ErrExpired is returned for a correctly signed token whose exp has passed.
	ErrExpired = errors.New("token expired")
	// ErrInvalidSignature is returned when the signature or algorithm does not match.
	ErrInvalidSignature = errors.New("token signature invalid")
	// ErrMalformed is returned for anything that cannot be decoded into valid claims.
	ErrMalformed = errors.New("token malformed")
)

// Config configures a [Codec].
type Config struct {
	Secret    []byte
	AccessTTL time.Duration
	// Issuer is written to iss and, when set, required on verify.
	Issuer string
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Claims is the verified payload of an access token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SubjectID returns the sub claim.
func (c *Claims) SubjectID() string { return c.Subject }

// JTI returns the unique token identifier.
func (c *Claims) JTI() string { return c.ID }

// Expiry returns exp, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Issued describes a freshly signed access token.
type Issued struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// Codec signs and verifies access tokens. It holds no mutable state.
type Codec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// NewCodec validates cfg and builds a codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < minSecretBytes {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretBytes)
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("jwt access ttl must be positive")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Codec{
		secret: secret,
		ttl:    cfg.AccessTTL,
		issuer: cfg.Issuer,
		now:    cfg.Now,
		parser: jwt.NewParser(opts...),
	}, nil
}

// TTL returns the configured access-token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a new access token for subjectID with a fresh random jti.
// exp - iat is always the configured TTL.
func (c *Codec) Issue(subjectID, role string) (Issued, error) {
	if subjectID == "" {
		return Issued{}, errors.New("jwt: empty subject")
	}

	iat := c.now().Truncate(time.Second)
	exp := iat.Add(c.ttl)
	jti := uuid.NewString()

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ID:        jti,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return Issued{}, fmt.Errorf("jwt: sign: %w", err)
	}

	return Issued{Token: signed, JTI: jti, ExpiresAt: exp}, nil
}

// Verify checks signature and expiry and returns the typed claims.
func (c *Codec) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMalformed
	}

	claims := &Claims{}
	parsed, err := c.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, ErrMalformed
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
