package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAccessSecret  = "secret-key-change-in-production"
	defaultRefreshSecret = "refresh-secret-key-change-in-production"
)

var (
	ErrMissingTokenSecret     = errors.New("token secrets must be set")
	ErrIdenticalTokenSecrets  = errors.New("access and refresh token secrets must differ")
	ErrDefaultSecretInProd    = errors.New("default token secrets are not allowed in production")
	ErrInvalidTokenLifetime   = errors.New("token lifetimes must be positive and access must be shorter than refresh")
	ErrInvalidSweepInterval   = errors.New("token sweep interval must be positive")
	ErrInvalidBcryptCost      = fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	ErrInvalidServerTimeouts  = errors.New("request and shutdown timeouts must be positive")
	ErrInvalidRateLimitBudget = errors.New("auth rate limit must be positive")
	ErrNoAllowedOrigins       = errors.New("at least one CORS origin must be allowed")
)

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=UTC"
}

type ServerConfig struct {
	Environment     string
	Host            string
	Port            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

func (c *ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

type AdminConfig struct {
	Username string
	Password string
}

// Enabled reports whether the documentation routes should be mounted.
func (c *AdminConfig) Enabled() bool {
	return c.Username != "" && c.Password != ""
}

type TokenConfig struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	SweepInterval      time.Duration
}

type SecurityConfig struct {
	BcryptCost    int
	AuthRateLimit float64
}

type Config struct {
	Database *DatabaseConfig
	Server   *ServerConfig
	Admin    *AdminConfig
	Token    *TokenConfig
	Security *SecurityConfig
}

// LoadConfig resolves settings from defaults, the optional dotenv file and
// the process environment, in increasing order of precedence.
func LoadConfig(dotenvPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if dotenvPath != "" {
		values, err := godotenv.Read(dotenvPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", dotenvPath, err)
		}
		for key, value := range values {
			v.SetDefault(key, value)
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		Database: &DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USERNAME"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_DATABASE"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Server: &ServerConfig{
			Environment:     v.GetString("APP_ENV"),
			Host:            v.GetString("HOST"),
			Port:            v.GetString("PORT"),
			RequestTimeout:  v.GetDuration("REQUEST_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
			AllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Admin: &AdminConfig{
			Username: v.GetString("ADMIN_USERNAME"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
		Token: &TokenConfig{
			AccessTokenSecret:  v.GetString("JWT_SECRET"),
			RefreshTokenSecret: v.GetString("JWT_REFRESH_SECRET"),
			AccessTokenTTL:     v.GetDuration("ACCESS_TOKEN_TTL"),
			RefreshTokenTTL:    v.GetDuration("REFRESH_TOKEN_TTL"),
			SweepInterval:      v.GetDuration("TOKEN_SWEEP_INTERVAL"),
		},
		Security: &SecurityConfig{
			BcryptCost:    v.GetInt("BCRYPT_COST"),
			AuthRateLimit: v.GetFloat64("AUTH_RATE_LIMIT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	t := c.Token
	switch {
	case t.AccessTokenSecret == "" || t.RefreshTokenSecret == "":
		return ErrMissingTokenSecret
	case t.AccessTokenSecret == t.RefreshTokenSecret:
		return ErrIdenticalTokenSecrets
	case c.Server.IsProduction() &&
		(t.AccessTokenSecret == defaultAccessSecret || t.RefreshTokenSecret == defaultRefreshSecret):
		return ErrDefaultSecretInProd
	case t.AccessTokenTTL <= 0 || t.RefreshTokenTTL <= 0 || t.AccessTokenTTL >= t.RefreshTokenTTL:
		return ErrInvalidTokenLifetime
	case t.SweepInterval <= 0:
		return ErrInvalidSweepInterval
	}

	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return ErrInvalidBcryptCost
	}
	if c.Security.AuthRateLimit <= 0 {
		return ErrInvalidRateLimitBudget
	}
	if c.Server.RequestTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return ErrInvalidServerTimeouts
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return ErrNoAllowedOrigins
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HOST", "localhost")
	v.SetDefault("PORT", "3000")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:4200")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USERNAME", "boom")
	v.SetDefault("DB_PASSWORD", "boom_dev_password")
	v.SetDefault("DB_DATABASE", "boom_dev")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("JWT_SECRET", defaultAccessSecret)
	v.SetDefault("JWT_REFRESH_SECRET", defaultRefreshSecret)
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("TOKEN_SWEEP_INTERVAL", "1h")

	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("AUTH_RATE_LIMIT", 5)

	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_PASSWORD", "")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
