package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	LogLevel           string
	CORSAllowedOrigins []string

	Database DatabaseConfig

	JWTSecret string
	TokenTTL  time.Duration

	RedisURL          string
	StatsCacheTTL     time.Duration
	StatsWarmInterval time.Duration

	LoginRatePerMinute int
	TrustedProxies     []netip.Prefix

	OTLPEndpoint string

	BootstrapAdminUsername string
	BootstrapAdminPassword string
}

// DatabaseConfig describes the record store connection
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Migrate         bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", getEnv("PORT", "3000")))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxOpen, err := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}

	maxIdle, err := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}

	lifetimeMin, err := strconv.Atoi(getEnv("DB_CONN_MAX_LIFETIME_MINUTES", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME_MINUTES: %w", err)
	}

	migrate, err := strconv.ParseBool(getEnv("DB_MIGRATE", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIGRATE: %w", err)
	}

	ttlMin, err := strconv.Atoi(getEnv("TOKEN_TTL_MINUTES", "1440"))
	if err != nil || ttlMin < 0 {
		return nil, fmt.Errorf("invalid TOKEN_TTL_MINUTES: %q", os.Getenv("TOKEN_TTL_MINUTES"))
	}

	statsTTL, err := strconv.Atoi(getEnv("STATS_CACHE_TTL_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_CACHE_TTL_SECONDS: %w", err)
	}

	warmSec, err := strconv.Atoi(getEnv("STATS_WARM_INTERVAL_SECONDS", "0"))
	if err != nil || warmSec < 0 {
		return nil, fmt.Errorf("invalid STATS_WARM_INTERVAL_SECONDS: %q", os.Getenv("STATS_WARM_INTERVAL_SECONDS"))
	}

	loginRate, err := strconv.Atoi(getEnv("LOGIN_RATE_PER_MINUTE", "10"))
	if err != nil || loginRate <= 0 {
		return nil, fmt.Errorf("invalid LOGIN_RATE_PER_MINUTE: %q", os.Getenv("LOGIN_RATE_PER_MINUTE"))
	}

	trusted, err := parsePrefixes(parseCSVEnv("TRUSTED_PROXIES", nil))
	if err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	environment := getEnv("ENVIRONMENT", "development")
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if environment != "development" {
			return nil, fmt.Errorf("JWT_SECRET is required in %s", environment)
		}
		secret = "dev-secret-change-me"
	}

	return &Config{
		Environment:        environment,
		ServerPort:         port,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: parseCSVEnv("FRONTEND_URL", []string{"http://localhost:8080"}),
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            dbPort,
			User:            getEnv("DB_USER", "memberledger"),
			Password:        getEnv("DB_PASSWORD", "dev"),
			Name:            getEnv("DB_NAME", "memberledger"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    maxOpen,
			MaxIdleConns:    maxIdle,
			ConnMaxLifetime: time.Duration(lifetimeMin) * time.Minute,
			Migrate:         migrate,
		},
		JWTSecret:              secret,
		TokenTTL:               time.Duration(ttlMin) * time.Minute,
		RedisURL:               os.Getenv("REDIS_URL"),
		StatsCacheTTL:          time.Duration(statsTTL) * time.Second,
		StatsWarmInterval:      time.Duration(warmSec) * time.Second,
		LoginRatePerMinute:     loginRate,
		TrustedProxies:         trusted,
		BootstrapAdminUsername: os.Getenv("BOOTSTRAP_ADMIN_USERNAME"),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		OTLPEndpoint:           os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

// parsePrefixes accepts CIDRs and bare addresses
func parsePrefixes(values []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, err
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, err
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
