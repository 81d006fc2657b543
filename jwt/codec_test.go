package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newCodec(t *testing.T, clock *fakeClock) *Codec {
	t.Helper()
	c, err := NewCodec(Config{Secret: testSecret, AccessTTL: 30 * time.Minute, Now: clock.Now})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCodec(t, clock)

	issued, err := c.Issue("user-1", "admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if issued.JTI == "" {
		t.Fatal("expected jti")
	}
	if got := issued.ExpiresAt.Sub(clock.t); got != 30*time.Minute {
		t.Fatalf("exp - iat = %v, want 30m", got)
	}

	claims, err := c.Verify(issued.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.SubjectID() != "user-1" || claims.Role != "admin" || claims.JTI() != issued.JTI {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.Expiry().Equal(issued.ExpiresAt) {
		t.Fatalf("expiry mismatch: %v vs %v", claims.Expiry(), issued.ExpiresAt)
	}
}

func TestIssueProducesUniqueJTI(t *testing.T) {
	c := newCodec(t, &fakeClock{t: time.Now()})

	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		issued, err := c.Issue("u", "user")
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if _, dup := seen[issued.JTI]; dup {
			t.Fatalf("duplicate jti %s", issued.JTI)
		}
		seen[issued.JTI] = struct{}{}
	}
}

func TestVerifyExpiryIsStrict(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCodec(t, clock)

	issued, err := c.Issue("user-1", "user")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock.t = issued.ExpiresAt.Add(-time.Second)
	if _, err := c.Verify(issued.Token); err != nil {
		t.Fatalf("one second before exp: %v", err)
	}

	clock.t = issued.ExpiresAt
	if _, err := c.Verify(issued.Token); !errors.Is(err, ErrExpired) {
		t.Fatalf("at exp: expected ErrExpired, got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := newCodec(t, clock)

	other, err := NewCodec(Config{Secret: []byte(strings.Repeat("z", 32)), AccessTTL: time.Minute, Now: clock.Now})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	issued, err := other.Issue("user-1", "admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := c.Verify(issued.Token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	c := newCodec(t, &fakeClock{t: time.Now()})

	user, _ := c.Issue("user-1", "user")
	admin, _ := c.Issue("user-1", "admin")

	u := strings.Split(user.Token, ".")
	a := strings.Split(admin.Token, ".")
	forged := u[0] + "." + a[1] + "." + u[2]

	if _, err := c.Verify(forged); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyRejectsWrongAlgorithm(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := newCodec(t, clock)

	claims := Claims{Role: "admin", RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "user-1",
		ID:        "jti-1",
		IssuedAt:  gjwt.NewNumericDate(clock.t),
		ExpiresAt: gjwt.NewNumericDate(clock.t.Add(time.Minute)),
	}}
	unsigned, err := gjwt.NewWithClaims(gjwt.SigningMethodNone, claims).SignedString(gjwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	if _, err := c.Verify(unsigned); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for alg=none, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	c := newCodec(t, &fakeClock{t: time.Now()})

	for _, tok := range []string{"", "abc", "a.b.c", "Bearer x.y.z"} {
		if _, err := c.Verify(tok); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Verify(%q): expected ErrMalformed, got %v", tok, err)
		}
	}
}

func TestVerifyRequiresSubjectAndJTI(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := newCodec(t, clock)

	claims := Claims{Role: "user", RegisteredClaims: gjwt.RegisteredClaims{
		IssuedAt:  gjwt.NewNumericDate(clock.t),
		ExpiresAt: gjwt.NewNumericDate(clock.t.Add(time.Minute)),
	}}
	tok, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := c.Verify(tok); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestNewCodecValidatesConfig(t *testing.T) {
	if _, err := NewCodec(Config{Secret: []byte("short"), AccessTTL: time.Minute}); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
	if _, err := NewCodec(Config{Secret: testSecret}); err == nil {
		t.Fatal("expected zero ttl to be rejected")
	}
}
