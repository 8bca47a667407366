package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Password hash algorithms accepted by PASSWORD_HASH_ALGORITHM.
const (
	HashBcrypt   = "bcrypt"
	HashArgon2id = "argon2id"
)

var ErrMissingTokenSecret = errors.New("TOKEN_SECRET_KEY is required")

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Mongo    MongoConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Email    EmailConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins
	APIURL          string   // public base URL used in verification links
}

type StoreConfig struct {
	Driver string // mongo, postgres or redis
}

type MongoConfig struct {
	URI             string
	Database        string
	UsersCollection string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	// HMAC secret for session tokens
	TokenSecret   []byte
	TokenDuration time.Duration

	// PASETO symmetric key (must be 32 bytes for v4.local)
	ConfirmationKey []byte
	// Zero disables confirmation link expiry
	ConfirmationDuration time.Duration

	HashAlgorithm string
	HashCost      int
}

type EmailConfig struct {
	SMTPHost         string
	SMTPPort         string
	SMTPUser         string
	SMTPPassword     string
	From             string
	DispatchRetries  int
	DispatchInterval time.Duration
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	smtpUser := getEnv("SMTP_USER", "")

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "4000"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
			APIURL:          strings.TrimRight(getEnv("API_URL", "http://0.0.0.0:4000"), "/"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		},
		Mongo: MongoConfig{
			URI:             getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:        getEnv("MONGO_DATABASE", "auth"),
			UsersCollection: getEnv("MONGO_USERS_COLLECTION", "users"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "auth"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			TokenSecret:          []byte(getEnv("TOKEN_SECRET_KEY", "")),
			TokenDuration:        getDurationEnv("TOKEN_DURATION", 2*time.Hour),
			ConfirmationKey:      []byte(getEnv("CONFIRMATION_KEY", "")),
			ConfirmationDuration: getDurationEnv("CONFIRMATION_TOKEN_DURATION", 24*time.Hour),
			HashAlgorithm:        strings.ToLower(getEnv("PASSWORD_HASH_ALGORITHM", HashBcrypt)),
			HashCost:             getIntEnv("PASSWORD_HASH_COST", bcrypt.DefaultCost),
		},
		Email: EmailConfig{
			SMTPHost:         getEnv("SMTP_HOST", ""),
			SMTPPort:         getEnv("SMTP_PORT", "587"),
			SMTPUser:         smtpUser,
			SMTPPassword:     getEnv("SMTP_PASS", ""),
			From:             getEnv("SMTP_FROM", smtpUser),
			DispatchRetries:  getIntEnv("EMAIL_DISPATCH_RETRIES", 2),
			DispatchInterval: getMillisEnv("EMAIL_DISPATCH_INTERVAL_MS", 500*time.Millisecond),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the process cannot serve requests with.
func (c *Config) Validate() error {
	if len(c.Auth.TokenSecret) == 0 {
		return ErrMissingTokenSecret
	}

	// Validate PASETO key length (must be 32 bytes for v4.local)
	if len(c.Auth.ConfirmationKey) != 32 {
		return fmt.Errorf("CONFIRMATION_KEY must be exactly 32 bytes, got %d", len(c.Auth.ConfirmationKey))
	}

	if c.Auth.TokenDuration <= 0 {
		return fmt.Errorf("TOKEN_DURATION must be positive")
	}
	if c.Auth.ConfirmationDuration < 0 {
		return fmt.Errorf("CONFIRMATION_TOKEN_DURATION must not be negative")
	}

	switch c.Auth.HashAlgorithm {
	case HashBcrypt:
		if c.Auth.HashCost < bcrypt.MinCost || c.Auth.HashCost > bcrypt.MaxCost {
			return fmt.Errorf("PASSWORD_HASH_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.Auth.HashCost)
		}
	case HashArgon2id:
	default:
		return fmt.Errorf("unsupported PASSWORD_HASH_ALGORITHM: %q", c.Auth.HashAlgorithm)
	}

	switch c.Store.Driver {
	case StoreMongo, StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %q", c.Store.Driver)
	}

	if c.Email.DispatchRetries < 0 {
		return fmt.Errorf("EMAIL_DISPATCH_RETRIES must not be negative")
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

// SMTPEnabled reports whether outbound mail goes through an SMTP relay.
func (c *EmailConfig) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// getDurationEnv reads a whole number of seconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getMillisEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	millis, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(millis) * time.Millisecond
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Split by comma and trim whitespace
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
