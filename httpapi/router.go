package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/middleware"
)

// Service is the part of *authcore.Engine the handlers call.
type Service interface {
	Register(ctx context.Context, email, password string) (*authcore.User, error)
	Login(ctx context.Context, email, password string) (*authcore.Tokens, error)
	Refresh(ctx context.Context, raw string) (*authcore.Tokens, error)
	Logout(ctx context.Context, accessToken, refreshToken string)
	ValidateAccess(ctx context.Context, token string) (*authcore.Identity, error)
	Me(ctx context.Context, subjectID string) (*authcore.User, error)
	SendVerification(ctx context.Context, subjectID string) error
	VerifyEmail(ctx context.Context, token string) error

	ListUsers(ctx context.Context, f authcore.UserFilter) (*authcore.UserPage, error)
	GetUser(ctx context.Context, id string) (*authcore.User, error)
	DisableUser(ctx context.Context, id string) (*authcore.User, error)
	EnableUser(ctx context.Context, id string) (*authcore.User, error)
	UserStats(ctx context.Context) (*authcore.UserStats, error)
	IsActive(ctx context.Context, subjectID string) (bool, error)

	RefreshTTL() time.Duration
}

var _ Service = (*authcore.Engine)(nil)

// Options configures NewRouter.
type Options struct {
	Logger *slog.Logger
	// Timeout is the per-request deadline; zero disables it.
	Timeout time.Duration
	// TrustProxy takes the client IP from the first X-Forwarded-For entry.
	TrustProxy bool
	// SecureCookie sets the Secure attribute on the refresh cookie. Disable
	// only for plain-HTTP local development.
	SecureCookie bool
	// Ready backs /healthz. Nil means always ready.
	Ready func(ctx context.Context) error
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

type handlers struct {
	svc      Service
	validate *validator.Validate
	secure   bool
	ready    func(ctx context.Context) error
}

// NewRouter builds the HTTP handler for svc.
func NewRouter(svc Service, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	h := &handlers{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		secure:   opts.SecureCookie,
		ready:    opts.Ready,
	}

	r := chi.NewRouter()

	// outer -> inner
	r.Use(
		chimw.RequestID,
		logging(opts.Logger),
		recoverer,
		clientIP(opts.TrustProxy),
	)
	if opts.Timeout > 0 {
		r.Use(chimw.Timeout(opts.Timeout))
	}

	r.Get("/livez", h.livez)
	r.Get("/healthz", h.healthz)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	authn := middleware.Authenticate(svc)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/refresh", h.refresh)
		r.Post("/logout", h.logout)
		r.Post("/verify-email", h.verifyEmail)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Get("/me", h.me)
			r.Post("/send-verification", h.sendVerification)
		})
	})

	r.Route("/admin/users", func(r chi.Router) {
		r.Use(
			authn,
			middleware.RequireRole(authcore.RoleAdmin),
			middleware.RequireActive(svc),
		)
		r.Get("/", h.listUsers)
		r.Get("/stats", h.userStats)
		r.Get("/{id}", h.getUser)
		r.Patch("/{id}/disable", h.disableUser)
		r.Patch("/{id}/enable", h.enableUser)
	})

	return r
}
