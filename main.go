// main.go
// Jewelbox storefront and admin API

package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"jewelbox/auth"
	"jewelbox/backup"
	"jewelbox/config"
	"jewelbox/db"
	"jewelbox/handlers"
	"jewelbox/inventory"
	"jewelbox/middleware"
	"jewelbox/notify"
	"jewelbox/orders"
	"jewelbox/payment"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(newLogger(cfg.Logging.Level, cfg.Logging.Format))
	if envErr != nil {
		slog.Info("no .env file found, using system environment variables")
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	slog.Info("starting jewelbox API", "environment", cfg.Server.Environment, "port", cfg.Server.Port,
		"storage", cfg.Storage.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collections, err := db.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer collections.Close()

	// Admin auth
	passwordHash, err := adminPasswordHash(cfg)
	if err != nil {
		return err
	}
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.SessionTimeout)
	authenticator := auth.NewAuthenticator(auth.AdminAccount{
		Email:        cfg.Admin.Email,
		Name:         cfg.Admin.Name,
		PasswordHash: passwordHash,
	})
	slog.Info("admin auth ready", "email", cfg.Admin.Email, "expiration", cfg.JWT.Expiration)

	// Domain services
	inv := inventory.NewService(collections.Products)
	defer inv.Close()

	outbox := notify.NewOutbox(collections.Notifications)
	ord := orders.NewService(collections.Orders, outbox, orders.Options{
		DeliveryDays:      cfg.Orders.DeliveryDays,
		CancelWindow:      cfg.Orders.CancelWindow,
		StrictTransitions: cfg.Orders.StrictTransitions,
		AdminEmail:        cfg.Email.AdminAddress,
		SMS:               cfg.SMSEnabled(),
	})
	defer ord.Close()

	mailer, sms, err := notifiers(cfg)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(collections.Notifications, mailer, sms, cfg.Notify.PollInterval, cfg.Notify.MaxAttempts)
	go dispatcher.Run(ctx)

	var gateway payment.Gateway
	if cfg.PaymentsEnabled() {
		gateway = payment.NewRazorpay(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
		slog.Info("payments enabled", "provider", "razorpay")
	} else {
		slog.Warn("RAZORPAY_KEY_ID or RAZORPAY_KEY_SECRET missing, payment endpoints disabled")
	}

	backups := backup.NewService(inv, ord, cfg.Storage.BackupDir, cfg.Storage.BackupKeep)

	// Rate limiting
	proxies, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	rateLimiter.CleanupOldLimiters(ctx)
	loginLimiter := middleware.NewLoginLimiter(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow)
	loginLimiter.CleanupExpired(ctx)
	slog.Info("rate limiter ready", "requests", cfg.RateLimit.Requests, "window", cfg.RateLimit.Window,
		"loginAttempts", cfg.RateLimit.LoginAttempts, "loginWindow", cfg.RateLimit.LoginWindow)

	mux := handlers.NewRouter(handlers.Handlers{
		Auth:           handlers.NewAuthHandler(authenticator, tokens, handlers.CookieSettings{Name: cfg.Cookie.Name, Secure: cfg.Cookie.Secure}),
		Products:       handlers.NewProductHandler(inv),
		SimpleProducts: handlers.NewSimpleProductHandler(inv),
		Orders:         handlers.NewOrderHandler(ord),
		Payments:       handlers.NewPaymentHandler(gateway),
		Backups:        handlers.NewBackupHandler(backups),
		Analytics:      handlers.NewAnalyticsHandler(inv, ord),
		Export:         handlers.NewExportHandler(inv, ord),
		Notifications:  handlers.NewNotificationHandler(outbox),
		LoginLimiter:   loginLimiter,
		StaticDir:      cfg.Server.StaticDir,
	})

	csrfKey := cfg.CSRF.Key
	if csrfKey == nil {
		csrfKey = make([]byte, 32)
		if _, err := rand.Read(csrfKey); err != nil {
			return fmt.Errorf("failed to generate CSRF key: %w", err)
		}
		slog.Warn("CSRF_KEY not set, using a random key; admin CSRF tokens reset on restart")
	}

	// Outermost first: client IP, logging, security headers, rate limit, admin gate, CSRF
	var handler http.Handler = mux
	handler = middleware.CSRF(csrfKey, cfg.Cookie.Secure, cfg.CSRF.TrustedOrigins)(handler)
	handler = middleware.AdminGate(tokens, cfg.Cookie.Name)(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.Logging(handler)
	handler = middleware.RealIP(proxies)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	slog.Info("server stopped gracefully")
	return nil
}

// adminPasswordHash returns the configured hash. Outside production a missing hash is derived
// from ADMIN_DEV_PASSWORD.
func adminPasswordHash(cfg *config.Config) (string, error) {
	if cfg.Admin.PasswordHash != "" {
		return cfg.Admin.PasswordHash, nil
	}
	if cfg.IsProduction() {
		return "", errors.New("ADMIN_PASSWORD_HASH must be set in production")
	}
	hash, err := auth.HashPassword(cfg.Admin.DevPassword)
	if err != nil {
		return "", fmt.Errorf("failed to hash development password: %w", err)
	}
	slog.Warn("ADMIN_PASSWORD_HASH not set, using ADMIN_DEV_PASSWORD", "email", cfg.Admin.Email)
	return hash, nil
}

func notifiers(cfg *config.Config) (notify.Mailer, notify.SMSSender, error) {
	var mailer notify.Mailer = notify.NoopMailer{}
	if cfg.EmailEnabled() {
		m, err := notify.NewSMTPMailer(cfg.Email.Host, cfg.Email.Port, cfg.Email.User, cfg.Email.Pass, cfg.Email.From)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to configure email: %w", err)
		}
		mailer = m
		slog.Info("email notifications enabled", "host", cfg.Email.Host)
	}

	var sms notify.SMSSender = notify.NoopSender{}
	if cfg.SMSEnabled() {
		sms = notify.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber)
		slog.Info("sms notifications enabled", "from", cfg.Twilio.PhoneNumber)
	}
	return mailer, sms, nil
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
