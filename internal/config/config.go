package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// MinSecretLength is the smallest accepted signing secret, in bytes. HS512
// needs at least 256 bits of key material.
const MinSecretLength = 32

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr                   string
	Password               string
	DB                     int
	CredentialCacheSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret                      string
	TokenValiditySeconds           int
	TokenValidityRememberMeSeconds int
	TokenHeader                    string
}

// Load reads configuration from environment variables, applying defaults where possible.
// Security parameters are never defaulted silently: a missing secret or a
// non-numeric validity is an error and the caller must refuse to start.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cacheSeconds, err := getEnvAsStrictInt("REDIS_CREDENTIAL_CACHE_SECONDS", 0)
	if err != nil {
		return nil, err
	}

	validity, err := getEnvAsStrictInt("AUTH_TOKEN_VALIDITY_SECONDS", 86400)
	if err != nil {
		return nil, err
	}
	rememberMe, err := getEnvAsStrictInt("AUTH_TOKEN_VALIDITY_REMEMBER_ME_SECONDS", 2592000)
	if err != nil {
		return nil, err
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "coffee-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:                   getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:               os.Getenv("REDIS_PASSWORD"),
			DB:                     redisDB,
			CredentialCacheSeconds: cacheSeconds,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:                      os.Getenv("AUTH_JWT_SECRET"),
			TokenValiditySeconds:           validity,
			TokenValidityRememberMeSeconds: rememberMe,
			TokenHeader:                    getEnv("AUTH_TOKEN_HEADER", "Authorization"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that must never be left undefined.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	} else if len(c.Auth.JWTSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", MinSecretLength))
	}
	if c.Auth.TokenValiditySeconds <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_VALIDITY_SECONDS must be positive"))
	}
	if c.Auth.TokenValidityRememberMeSeconds <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_VALIDITY_REMEMBER_ME_SECONDS must be positive"))
	}
	if c.Auth.TokenHeader == "" {
		errs = append(errs, errors.New("AUTH_TOKEN_HEADER must not be empty"))
	}
	if c.Redis.CredentialCacheSeconds < 0 {
		errs = append(errs, errors.New("REDIS_CREDENTIAL_CACHE_SECONDS must not be negative"))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenValidity is the standard token lifetime.
func (a AuthConfig) TokenValidity() time.Duration {
	return time.Duration(a.TokenValiditySeconds) * time.Second
}

// TokenValidityRememberMe is the extended token lifetime.
func (a AuthConfig) TokenValidityRememberMe() time.Duration {
	return time.Duration(a.TokenValidityRememberMeSeconds) * time.Second
}

// CredentialCacheTTL returns the credential cache lifetime, zero when disabled.
func (r RedisConfig) CredentialCacheTTL() time.Duration {
	if r.CredentialCacheSeconds <= 0 {
		return 0
	}
	return time.Duration(r.CredentialCacheSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvAsStrictInt is getEnvAsInt for values where a typo must stop the process.
func getEnvAsStrictInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
