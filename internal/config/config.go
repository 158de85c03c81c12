package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	JWTIssuer         string        `mapstructure:"JWT_ISSUER"`
	AccessTokenTTL    time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	PasswordResetTTL  time.Duration `mapstructure:"PASSWORD_RESET_TTL"`
	AllowSignup       bool          `mapstructure:"ALLOW_SIGNUP"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BlobBackend       string        `mapstructure:"BLOB_BACKEND"`
	BlobBoltPath      string        `mapstructure:"BLOB_BOLT_PATH"`
	PublicBaseURL     string        `mapstructure:"PUBLIC_BASE_URL"`
	PostalCodeAPIURL  string        `mapstructure:"POSTAL_CODE_API_URL"`
	PostalCodeTimeout time.Duration `mapstructure:"POSTAL_CODE_TIMEOUT"`
}

// devJWTSecret signs tokens when ENV=development and no JWT_SECRET is set.
const devJWTSecret = "clinicdesk-development-secret-do-not-use"

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("JWT_ISSUER", "clinicdesk")
	v.SetDefault("ACCESS_TOKEN_TTL", "12h")
	v.SetDefault("PASSWORD_RESET_TTL", "1h")
	v.SetDefault("ALLOW_SIGNUP", true)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BLOB_BACKEND", "postgres")
	v.SetDefault("BLOB_BOLT_PATH", "data/blobs.db")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8000")
	v.SetDefault("POSTAL_CODE_API_URL", "https://viacep.com.br/ws")
	v.SetDefault("POSTAL_CODE_TIMEOUT", "5s")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"JWT_SECRET", "JWT_ISSUER", "ACCESS_TOKEN_TTL", "PASSWORD_RESET_TTL",
		"ALLOW_SIGNUP", "CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"REQUEST_TIMEOUT", "BLOB_BACKEND", "BLOB_BOLT_PATH", "PUBLIC_BASE_URL",
		"POSTAL_CODE_API_URL", "POSTAL_CODE_TIMEOUT",
	} {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	cfg.PostalCodeAPIURL = strings.TrimRight(cfg.PostalCodeAPIURL, "/")

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.JWTSecret == "" {
		log.Println("WARNING: JWT_SECRET is not set; using the built-in development secret.")
		log.Println("WARNING: Do NOT run with ENV=development in production.")
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV=%q", c.Env)
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes in production, got %d", len(c.JWTSecret))
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.AccessTokenTTL)
	}
	if c.PasswordResetTTL <= 0 {
		return fmt.Errorf("PASSWORD_RESET_TTL must be positive, got %s", c.PasswordResetTTL)
	}
	switch c.BlobBackend {
	case "memory", "postgres":
	case "bolt":
		if c.BlobBoltPath == "" {
			return fmt.Errorf("BLOB_BOLT_PATH is required when BLOB_BACKEND is \"bolt\"")
		}
	default:
		return fmt.Errorf("BLOB_BACKEND must be \"memory\", \"postgres\", or \"bolt\", got %q", c.BlobBackend)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) cannot exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
