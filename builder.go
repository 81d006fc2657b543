package authcore

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore/internal/limiters"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/internal/stores"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
)

// Builder assembles an Engine. Configure it once at startup; Build may be
// called only once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	logger *slog.Logger
	now    func() time.Time

	users         UserStore
	refreshTokens RefreshTokenStore
	verifications VerificationStore
	email         EmailSender

	built bool
}

// New returns a Builder with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the key-value store used for the blacklist and rate limits.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithUserStore(s UserStore) *Builder {
	b.users = s
	return b
}

func (b *Builder) WithRefreshTokenStore(s RefreshTokenStore) *Builder {
	b.refreshTokens = s
	return b
}

// WithVerificationStore and WithEmailSender are optional; without them
// SendVerification and VerifyEmail return ErrEngineNotReady.
func (b *Builder) WithVerificationStore(s VerificationStore) *Builder {
	b.verifications = s
	return b
}

func (b *Builder) WithEmailSender(s EmailSender) *Builder {
	b.email = s
	return b
}

func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides time.Now for token issuance, expiry and store timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.refreshTokens == nil {
		return nil, errors.New("refresh token store required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ph, err := password.NewArgon2(cfg.Password.Argon2)
	if err != nil {
		return nil, err
	}
	// Verified against when an email is unknown, to keep login timing flat.
	dummy, err := ph.Hash("authcore-timing-equalizer")
	if err != nil {
		return nil, err
	}

	codec, err := jwt.NewCodec(jwt.Config{
		Secret:    append([]byte(nil), cfg.JWT.Secret...),
		AccessTTL: cfg.JWT.AccessTTL,
		Issuer:    cfg.JWT.Issuer,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}

	counter := rate.New(b.redis, rate.Config{
		Prefix:  cfg.RateLimit.KeyPrefix,
		Timeout: cfg.Timeouts.KV,
	})

	engine := &Engine{
		config:       cfg,
		logger:       logger,
		now:          now,
		metrics:      NewMetrics(cfg.Metrics),
		passwordHash: ph,
		dummyHash:    dummy,
		codec:        codec,
		validate:     validator.New(),
		refresh:      NewRefreshTokens(b.refreshTokens, cfg.Refresh.TTL, cfg.Timeouts.Store, now),
		blacklist:    stores.NewBlacklist(b.redis, cfg.Timeouts.KV),
		loginLimiter: limiters.NewLoginLimiter(counter, limiters.LoginConfig{
			MaxAttempts: cfg.RateLimit.LoginMaxAttempts,
			Window:      cfg.RateLimit.LoginWindow,
		}),
		verificationLimiter: limiters.NewVerificationLimiter(counter, limiters.VerificationConfig{
			MaxSends: cfg.RateLimit.VerificationMaxSends,
			Window:   cfg.RateLimit.VerificationWindow,
		}),
		users:         b.users,
		verifications: b.verifications,
		email:         b.email,
	}
	engine.flowDeps = engine.buildFlowDeps()

	b.built = true

	return engine, nil
}
