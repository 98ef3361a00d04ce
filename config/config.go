package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const defaultJWTSecret = "dev-secret-key"

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Admin     AdminConfig
	JWT       JWTConfig
	Cookie    CookieConfig
	CSRF      CSRFConfig
	Storage   StorageConfig
	Firebase  FirebaseConfig
	RateLimit RateLimitConfig
	Orders    OrdersConfig
	Razorpay  RazorpayConfig
	Email     EmailConfig
	Twilio    TwilioConfig
	Notify    NotifyConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
	StaticDir   string
	// TrustedProxies are IPs or CIDR ranges whose X-Forwarded-For header is believed.
	TrustedProxies []string
}

type AdminConfig struct {
	Email        string
	Name         string
	PasswordHash string
	// DevPassword is hashed at startup when no hash is configured outside production.
	DevPassword string
}

type JWTConfig struct {
	Secret         string
	Expiration     time.Duration
	SessionTimeout time.Duration
}

type CookieConfig struct {
	Name   string
	Secure bool
}

type CSRFConfig struct {
	Key []byte
	// TrustedOrigins are extra hosts (host[:port]) allowed to submit admin requests over HTTPS.
	TrustedOrigins []string
}

type StorageConfig struct {
	Backend     string
	DataDir     string
	BackupDir   string
	BackupKeep  int
	DatabaseDSN string
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsPath string
}

type RateLimitConfig struct {
	Requests      int
	Window        time.Duration
	LoginAttempts int
	LoginWindow   time.Duration
}

type OrdersConfig struct {
	DeliveryDays      int
	CancelWindow      time.Duration
	StrictTransitions bool
}

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
}

type EmailConfig struct {
	Host         string
	Port         int
	User         string
	Pass         string
	From         string
	AdminAddress string
}

type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
}

type NotifyConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() *Config {
	env := getEnv("ENVIRONMENT", getEnv("NODE_ENV", "development"))
	dataDir := getEnv("DATA_DIR", "data")

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Host:        getEnv("HOST", "0.0.0.0"),
			Environment: env,
			StaticDir:   getEnv("STATIC_DIR", ""),

			TrustedProxies: parseStringSlice(getEnv("TRUSTED_PROXIES", "")),
		},
		Admin: AdminConfig{
			Email:        getEnv("ADMIN_EMAIL", "admin@jewelbox.local"),
			Name:         getEnv("ADMIN_NAME", "Store Admin"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			DevPassword:  getEnv("ADMIN_DEV_PASSWORD", "jewelbox-dev"),
		},
		JWT: JWTConfig{
			Secret:         getEnv("JWT_SECRET", defaultJWTSecret),
			Expiration:     parseDuration(getEnv("JWT_EXPIRES_IN", "24h"), 24*time.Hour),
			SessionTimeout: parseDuration(getEnv("SESSION_TIMEOUT", "24h"), 24*time.Hour),
		},
		Cookie: CookieConfig{
			Name:   getEnv("COOKIE_NAME", "admin-token"),
			Secure: parseBool(getEnv("COOKIE_SECURE", ""), env == "production"),
		},
		CSRF: CSRFConfig{
			Key:            parseKey(getEnv("CSRF_KEY", "")),
			TrustedOrigins: parseStringSlice(getEnv("CSRF_TRUSTED_ORIGINS", "")),
		},
		Storage: StorageConfig{
			Backend:     strings.ToLower(getEnv("STORE_BACKEND", "json")),
			DataDir:     dataDir,
			BackupDir:   getEnv("BACKUP_DIR", filepath.Join(dataDir, "backups")),
			BackupKeep:  parseInt(getEnv("BACKUP_KEEP", "10"), 10),
			DatabaseDSN: getEnv("DATABASE_DSN", filepath.Join(dataDir, "jewelbox.db")),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		RateLimit: RateLimitConfig{
			Requests:      parseInt(getEnv("RATE_LIMIT_REQUESTS", "100"), 100),
			Window:        parseDuration(getEnv("RATE_LIMIT_WINDOW", "60"), 60*time.Second),
			LoginAttempts: parseInt(getEnv("LOGIN_MAX_ATTEMPTS", "5"), 5),
			LoginWindow:   parseDuration(getEnv("LOGIN_WINDOW", "15m"), 15*time.Minute),
		},
		Orders: OrdersConfig{
			DeliveryDays:      parseInt(getEnv("ORDER_DELIVERY_DAYS", "7"), 7),
			CancelWindow:      parseDuration(getEnv("ORDER_CANCEL_WINDOW", "0"), 0),
			StrictTransitions: parseBool(getEnv("ORDER_STRICT_TRANSITIONS", ""), true),
		},
		Razorpay: RazorpayConfig{
			KeyID:     getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret: getEnv("RAZORPAY_KEY_SECRET", getEnv("RAZORPAY_SECRET", "")),
		},
		Email: EmailConfig{
			Host:         getEnv("EMAIL_HOST", "smtp.gmail.com"),
			Port:         parseInt(getEnv("EMAIL_PORT", "587"), 587),
			User:         getEnv("EMAIL_USER", ""),
			Pass:         getEnv("EMAIL_PASS", ""),
			From:         getEnv("EMAIL_FROM", getEnv("EMAIL_USER", "")),
			AdminAddress: getEnv("ADMIN_NOTIFY_EMAIL", ""),
		},
		Twilio: TwilioConfig{
			AccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
			PhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
		},
		Notify: NotifyConfig{
			PollInterval: parseDuration(getEnv("NOTIFY_POLL_INTERVAL", "15s"), 15*time.Second),
			MaxAttempts:  parseInt(getEnv("NOTIFY_MAX_ATTEMPTS", "5"), 5),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, defaultValue int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return defaultValue
}

func parseBool(s string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	// Handle simple formats like "30m", "7d", "60"
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if strings.HasSuffix(s, "d") {
		if days, err := strconv.Atoi(strings.TrimSuffix(s, "d")); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	// If it's just a number, assume seconds
	if i, err := strconv.Atoi(s); err == nil {
		return time.Duration(i) * time.Second
	}
	return defaultValue
}

func parseStringSlice(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseKey decodes a base64 key of at least 32 bytes; anything else yields nil.
func parseKey(s string) []byte {
	if s == "" {
		return nil
	}
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(key) < 32 {
		slog.Warn("CSRF_KEY is invalid or shorter than 32 bytes, ignoring it")
		return nil
	}
	return key
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// Notification channels are enabled only when fully configured.
func (c *Config) EmailEnabled() bool {
	return c.Email.User != "" && c.Email.Pass != "" && c.Email.From != ""
}

func (c *Config) SMSEnabled() bool {
	return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != "" && c.Twilio.PhoneNumber != ""
}

func (c *Config) PaymentsEnabled() bool {
	return c.Razorpay.KeyID != "" && c.Razorpay.KeySecret != ""
}

// Validate reports configuration that must not reach a running server.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() {
		if c.JWT.Secret == defaultJWTSecret {
			errs = append(errs, errors.New("JWT_SECRET must be set in production"))
		}
		if c.Admin.PasswordHash == "" {
			errs = append(errs, errors.New("ADMIN_PASSWORD_HASH must be set in production"))
		}
		if c.CSRF.Key == nil {
			errs = append(errs, errors.New("CSRF_KEY must be set in production"))
		}
	}
	if c.Admin.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(c.Admin.PasswordHash)); err != nil {
			errs = append(errs, fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err))
		}
	}
	if c.Admin.Email == "" {
		errs = append(errs, errors.New("ADMIN_EMAIL must be set"))
	}
	if c.JWT.Expiration <= 0 || c.JWT.SessionTimeout <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN and SESSION_TIMEOUT must be positive"))
	}
	switch c.Storage.Backend {
	case "json", "sqlite", "postgres":
	case "firestore":
		if c.Firebase.ProjectID == "" {
			errs = append(errs, errors.New("FIREBASE_PROJECT_ID must be set for the firestore backend"))
		}
		if c.Firebase.CredentialsPath != "" {
			if _, err := os.Stat(c.Firebase.CredentialsPath); os.IsNotExist(err) {
				errs = append(errs, fmt.Errorf("firebase credentials file not found: %s", c.Firebase.CredentialsPath))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.Storage.Backend))
	}
	if c.Orders.DeliveryDays < 0 {
		errs = append(errs, errors.New("ORDER_DELIVERY_DAYS must not be negative"))
	}
	return errors.Join(errs...)
}
