package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// DevJWTSecret signs tokens when JWT_SECRET is unset. It is public and only
// acceptable outside production.
const DevJWTSecret = "edupay-dev-secret"

// Config is the typed view of the environment used by cmd/server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Payment  PaymentConfig
	Wallet   WalletConfig
	Logging  LoggingConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins string
	ShutdownGrace  time.Duration
	// AuthRateLimit caps register and login requests per IP per minute.
	AuthRateLimit int
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type PaymentConfig struct {
	Gateway         string // paystack, stripe or sandbox
	PaystackSecret  string
	PaystackBaseURL string
	CallbackURL     string
	StripeSecret    string
	Timeout         time.Duration
	PendingTTL      time.Duration
	SweepInterval   time.Duration
}

type WalletConfig struct {
	// Store selects the ledger backend: "sql" or "redis".
	Store          string
	Currency       string
	SeedBalance    decimal.Decimal
	MaxTransaction decimal.Decimal
	CatalogFile    string
	CacheTTL       time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

type AuthConfig struct {
	JWTSecret      string
	AccessTokenTTL time.Duration
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found", "error", err)
	}
}

// Load reads the environment into a Config, applying defaults.
func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:           GetEnv("PORT", "3000"),
			AllowedOrigins: GetEnv("CORS_ORIGINS", "http://localhost:5173"),
			ShutdownGrace:  GetDurationEnv("SHUTDOWN_GRACE", 10*time.Second),
			AuthRateLimit:  GetIntEnv("AUTH_RATE_LIMIT", 5),
		},
		Database: DatabaseConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "edupay"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
		},
		Payment: PaymentConfig{
			Gateway:         GetEnv("PAYMENT_GATEWAY", "sandbox"),
			PaystackSecret:  GetEnv("PAYSTACK_SECRET_KEY", ""),
			PaystackBaseURL: GetEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			CallbackURL:     GetEnv("PAYMENT_CALLBACK_URL", ""),
			StripeSecret:    GetEnv("STRIPE_SECRET_KEY", ""),
			Timeout:         GetDurationEnv("PAYMENT_TIMEOUT", 30*time.Second),
			PendingTTL:      GetDurationEnv("PENDING_TTL", 24*time.Hour),
			SweepInterval:   GetDurationEnv("PENDING_SWEEP_INTERVAL", 15*time.Minute),
		},
		Wallet: WalletConfig{
			Store:          GetEnv("LEDGER_STORE", "sql"),
			Currency:       GetEnv("WALLET_CURRENCY", "NGN"),
			SeedBalance:    GetDecimalEnv("WALLET_SEED_BALANCE", decimal.Zero),
			MaxTransaction: GetDecimalEnv("WALLET_MAX_TRANSACTION", decimal.Zero),
			CatalogFile:    GetEnv("CATALOG_FILE", ""),
			CacheTTL:       GetDurationEnv("WALLET_CACHE_TTL", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  GetEnv("LOG_LEVEL", "info"),
			Format: GetEnv("LOG_FORMAT", "text"),
		},
		Auth: AuthConfig{
			JWTSecret:      GetEnv("JWT_SECRET", DevJWTSecret),
			AccessTokenTTL: GetDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		},
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv parses values such as "30s" or "1h".
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// GetDecimalEnv returns a decimal environment variable or a default value.
func GetDecimalEnv(key string, defaultVal decimal.Decimal) decimal.Decimal {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := decimal.NewFromString(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// CheckProduction rejects development defaults that must not reach a
// production deployment.
func (c Config) CheckProduction() error {
	var errs []error
	if c.Payment.Gateway == "sandbox" {
		errs = append(errs, errors.New("PAYMENT_GATEWAY=sandbox is not allowed in production"))
	}
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == DevJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	return errors.Join(errs...)
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}
