package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change_me"

type Config struct {
	AppName    string
	AppEnv     string
	ServerPort string

	DBDriver string
	DBDSN    string

	JWTSecret         string
	JWTAlgorithm      string
	AccessTokenExpiry time.Duration

	CORSAllowOrigins []string
	StaticDir        string

	LogLevel  string
	LogFormat string

	// bootstrap account, created on startup when both are set
	AdminEmail    string
	AdminPassword string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppName:          getenv("APP_NAME", "Sales Management IMS"),
		AppEnv:           getenv("APP_ENV", "development"),
		ServerPort:       getenv("APP_PORT", "8000"),
		DBDriver:         strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DBDSN:            strings.TrimSpace(os.Getenv("DB_DSN")),
		JWTSecret:        getenv("JWT_SECRET", defaultJWTSecret),
		JWTAlgorithm:     strings.ToUpper(getenv("JWT_ALGORITHM", "HS256")),
		CORSAllowOrigins: splitOrigins(getenv("CORS_ALLOW_ORIGINS", "*")),
		StaticDir:        getenvAllowEmpty("STATIC_DIR", "./frontend"),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		LogFormat:        getenv("LOG_FORMAT", "json"),
		AdminEmail:       strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
	}

	minutes, err := strconv.Atoi(getenv("ACCESS_TOKEN_EXPIRE_MINUTES", "60"))
	if err != nil || minutes <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be a positive integer")
	}
	cfg.AccessTokenExpiry = time.Duration(minutes) * time.Minute

	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN is not set")
	}
	switch cfg.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	for _, origin := range cfg.CORSAllowOrigins {
		if origin == "*" {
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return nil, fmt.Errorf("CORS_ALLOW_ORIGINS: origin %q must start with http:// or https://", origin)
		}
	}

	if cfg.IsProduction() && cfg.JWTSecret == defaultJWTSecret {
		return nil, errors.New("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// STATIC_DIR= (set but empty) turns the mount off.
func getenvAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func splitOrigins(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
