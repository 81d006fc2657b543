package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/email"
	"github.com/MrEthical07/authcore/httpapi"
	"github.com/MrEthical07/authcore/internal/config"
	promexport "github.com/MrEthical07/authcore/metrics/export/prometheus"
	"github.com/MrEthical07/authcore/store/postgres"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var (
		configPath   string
		promoteAdmin string
	)
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.StringVar(&promoteAdmin, "promote-admin", "", "grant the admin role to the user with this email and exit")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log, promoteAdmin); err != nil {
		log.Error("authd_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, promoteAdmin string) error {
	log.Info("starting application", slog.String("env", cfg.Env))

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	store, err := postgres.New(dbCtx, cfg.DB.URL)
	dbCancel()
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info("postgres_connected")

	if cfg.DB.Migrate {
		if err := store.Migrate(rootCtx); err != nil {
			return err
		}
		log.Info("migrations_applied")
	}

	if promoteAdmin != "" {
		return promote(rootCtx, store, promoteAdmin, log)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	pingCtx, pingCancel := context.WithTimeout(rootCtx, 5*time.Second)
	err = rdb.Ping(pingCtx).Err()
	pingCancel()
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	log.Info("redis_connected")

	sender, err := newSender(cfg.Email, log)
	if err != nil {
		return err
	}

	engine, err := authcore.New().
		WithConfig(cfg.Engine()).
		WithRedis(rdb).
		WithUserStore(store).
		WithRefreshTokenStore(store).
		WithVerificationStore(store).
		WithEmailSender(sender).
		WithLogger(log).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()
	log.Info("engine_ready", slog.Any("security", engine.SecurityReport()))

	metrics, err := promexport.Handler(engine)
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(engine, httpapi.Options{
		Logger:       log,
		Timeout:      cfg.HTTP.RequestTimeout,
		TrustProxy:   cfg.HTTP.TrustProxy,
		SecureCookie: cfg.HTTP.SecureCookie,
		Metrics:      metrics,
		Ready: func(ctx context.Context) error {
			if err := store.Ping(ctx); err != nil {
				return err
			}
			return rdb.Ping(ctx).Err()
		},
	})

	go engine.RunJanitor(rootCtx, cfg.Janitor.Interval, cfg.Janitor.Retention)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http_listen_start", slog.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http serve: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_force_stop", slog.String("err", err.Error()))
	}

	log.Info("service_stopped")
	return nil
}

// newSender builds the configured provider. Real providers sit behind a
// circuit breaker.
func newSender(cfg config.EmailConfig, log *slog.Logger) (authcore.EmailSender, error) {
	tmpl := email.DefaultTemplate()
	tmpl.VerifyURL = cfg.VerifyURL

	var (
		next authcore.EmailSender
		err  error
	)
	switch cfg.Provider {
	case "log":
		return email.NewLogSender(log), nil
	case "sendgrid":
		next, err = email.NewSendGridSender(email.SendGridConfig{
			Key:      cfg.SendGridKey,
			From:     cfg.From,
			FromName: cfg.FromName,
			Template: tmpl,
		})
	case "mailgun":
		next, err = email.NewMailgunSender(email.MailgunConfig{
			Key:      cfg.MailgunKey,
			Domain:   cfg.MailgunDomain,
			From:     cfg.From,
			APIBase:  cfg.MailgunAPIBase,
			Template: tmpl,
		})
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	bc := email.DefaultBreakerConfig()
	bc.Name = cfg.Provider
	return email.NewBreaker(next, bc), nil
}

func promote(ctx context.Context, store *postgres.Storage, addr string, log *slog.Logger) error {
	u, err := store.GetUserByEmail(ctx, addr)
	if err != nil {
		return err
	}
	if err := store.SetRole(ctx, u.ID, authcore.RoleAdmin); err != nil {
		return err
	}
	log.Info("admin_promoted", slog.String("user_id", u.ID))
	return nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	return log
}
