package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int
	Environment     string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds Postgres settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int32
}

// RedisConfig holds Redis settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig holds bearer token verification settings. When JWKSURL is set it
// takes precedence over JWTSecret.
type AuthConfig struct {
	JWTSecret string
	JWKSURL   string
}

// TenancyConfig controls how the tenant selector is read from a request.
type TenancyConfig struct {
	Header     string
	BaseDomain string
	CacheTTL   time.Duration
}

// AdmissionConfig controls reservation admission.
type AdmissionConfig struct {
	LockBackend       string
	LockTimeout       time.Duration
	LockTTL           time.Duration
	NearCapacityRatio float64
}

// JobsConfig controls background jobs.
type JobsConfig struct {
	LifecycleSweepInterval time.Duration
}

type Config struct {
	ServiceName string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Tenancy     TenancyConfig
	Admission   AdmissionConfig
	Jobs        JobsConfig
}

// Load reads configuration from the environment, after loading a .env file
// if one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	p := &parser{getenv: getenv}

	cfg := &Config{
		ServiceName: p.str("SERVICE_NAME", "tablekeep"),
		LogLevel:    p.str("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:            p.int("PORT", 8080),
			Environment:     p.str("ENVIRONMENT", "development"),
			ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:      p.str("DATABASE_URL", ""),
			MaxConns: int32(p.int("DATABASE_MAX_CONNS", 20)),
		},
		Redis: RedisConfig{
			Addr:     p.str("REDIS_ADDR", "localhost:6379"),
			Password: p.str("REDIS_PASSWORD", ""),
			DB:       p.int("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: p.str("JWT_SECRET", ""),
			JWKSURL:   p.str("JWKS_URL", ""),
		},
		Tenancy: TenancyConfig{
			Header:     p.str("TENANT_HEADER", "X-Tenant"),
			BaseDomain: strings.ToLower(p.str("BASE_DOMAIN", "")),
			CacheTTL:   p.duration("PUBLIC_TENANT_CACHE_TTL", 5*time.Minute),
		},
		Admission: AdmissionConfig{
			LockBackend:       strings.ToLower(p.str("LOCK_BACKEND", LockBackendMemory)),
			LockTimeout:       p.duration("ADMISSION_LOCK_TIMEOUT", 3*time.Second),
			LockTTL:           p.duration("ADMISSION_LOCK_TTL", 15*time.Second),
			NearCapacityRatio: p.float("NEAR_CAPACITY_RATIO", 0.8),
		},
		Jobs: JobsConfig{
			LifecycleSweepInterval: p.duration("LIFECYCLE_SWEEP_INTERVAL", time.Hour),
		},
	}

	if err := multierr.Append(p.err, cfg.Validate()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if c.Database.URL == "" {
		err = multierr.Append(err, errors.New("DATABASE_URL is required"))
	}
	if c.Auth.JWTSecret == "" && c.Auth.JWKSURL == "" {
		err = multierr.Append(err, errors.New("one of JWT_SECRET or JWKS_URL is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("PORT %d is out of range", c.Server.Port))
	}
	switch c.Admission.LockBackend {
	case LockBackendMemory, LockBackendRedis:
	default:
		err = multierr.Append(err, fmt.Errorf("LOCK_BACKEND must be %q or %q", LockBackendMemory, LockBackendRedis))
	}
	if c.Admission.LockTimeout <= 0 {
		err = multierr.Append(err, errors.New("ADMISSION_LOCK_TIMEOUT must be positive"))
	}
	if c.Admission.LockBackend == LockBackendRedis && c.Admission.LockTTL <= c.Admission.LockTimeout {
		err = multierr.Append(err, errors.New("ADMISSION_LOCK_TTL must exceed ADMISSION_LOCK_TIMEOUT"))
	}
	if c.Admission.NearCapacityRatio <= 0 || c.Admission.NearCapacityRatio > 1 {
		err = multierr.Append(err, errors.New("NEAR_CAPACITY_RATIO must be in (0, 1]"))
	}
	if c.Tenancy.Header == "" {
		err = multierr.Append(err, errors.New("TENANT_HEADER cannot be empty"))
	}
	return err
}

type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) int(key string, def int) int {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: invalid number %q", key, v))
		return def
	}
	return f
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}
