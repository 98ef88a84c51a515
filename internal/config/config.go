// Package config handles application configuration and environment loading.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for the catalog data service.
//
// S3 credential fields are optional pointers — nil when not configured.
// Credential precedence, highest first:
//  1. explicit fields on this struct (static credentials)
//  2. a credentials provider injected by the caller at construction
//  3. the AWS default chain (environment, shared config, instance role)
type Config struct {
	S3KeyID    *string `yaml:"s3_key_id"`
	S3Secret   *string `yaml:"s3_secret"`
	S3Endpoint *string `yaml:"s3_endpoint"`
	S3Region   *string `yaml:"s3_region"`
	S3Bucket   *string `yaml:"s3_bucket"`

	// DuckDBPath is the engine database file; empty means in-memory.
	DuckDBPath string `yaml:"duckdb_path"`

	ListenAddr string `yaml:"listen_addr"` // HTTP listen address (default ":8080")
	LogLevel   string `yaml:"log_level"`   // debug, info, warn, error (default "info")

	// PresignTTL bounds the lifetime of presigned URLs handed to the
	// engine. Sized to expected query duration: there is no refresh, so a
	// query running past the TTL against presigned sources will fail.
	PresignTTL time.Duration `yaml:"presign_ttl"`

	// ReadConcurrency caps parallel partition fetches in multi-partition reads.
	ReadConcurrency int `yaml:"read_concurrency"`

	// Rate limiting for the HTTP surface.
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// HasS3Config returns true if all fields needed for static S3 access are set.
func (c *Config) HasS3Config() bool {
	return c.S3KeyID != nil && c.S3Secret != nil &&
		c.S3Region != nil && c.S3Bucket != nil
}

// Bucket returns the configured bucket name or "" when unset.
func (c *Config) Bucket() string {
	if c.S3Bucket == nil {
		return ""
	}
	return *c.S3Bucket
}

// LoadFromEnv loads configuration from environment variables.
// S3 variables are optional — the service can start without them.
func LoadFromEnv() (*Config, error) {
	cfg, err := loadEnv()
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// loadEnv reads environment variables without applying defaults, so file
// values are not shadowed by defaulted env fields during overlay.
func loadEnv() (*Config, error) {
	cfg := &Config{
		DuckDBPath: os.Getenv("DUCKDB_PATH"),
		ListenAddr: os.Getenv("LISTEN_ADDR"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
	}

	// S3 fields are optional — only set if present.
	if v := os.Getenv("S3_KEY_ID"); v != "" {
		cfg.S3KeyID = &v
	}
	if v := os.Getenv("S3_SECRET"); v != "" {
		cfg.S3Secret = &v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.S3Endpoint = &v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		cfg.S3Region = &v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.S3Bucket = &v
	}

	if v := os.Getenv("PRESIGN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PRESIGN_TTL %q: %w", v, err)
		}
		cfg.PresignTTL = d
	}
	if v := os.Getenv("READ_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid READ_CONCURRENCY %q: %w", v, err)
		}
		cfg.ReadConcurrency = n
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	return cfg, nil
}

// LoadFromFile reads a YAML config file and overlays env-derived defaults.
// Environment variables win over file values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	fileCfg := &Config{}
	if err := yaml.Unmarshal(data, fileCfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	envCfg, err := loadEnv()
	if err != nil {
		return nil, err
	}
	merged := fileCfg.overlay(envCfg)
	merged.applyDefaults()
	return merged, nil
}

// overlay returns a copy of c with any set field of over taking precedence.
func (c *Config) overlay(over *Config) *Config {
	out := *c
	if over.S3KeyID != nil {
		out.S3KeyID = over.S3KeyID
	}
	if over.S3Secret != nil {
		out.S3Secret = over.S3Secret
	}
	if over.S3Endpoint != nil {
		out.S3Endpoint = over.S3Endpoint
	}
	if over.S3Region != nil {
		out.S3Region = over.S3Region
	}
	if over.S3Bucket != nil {
		out.S3Bucket = over.S3Bucket
	}
	if over.DuckDBPath != "" {
		out.DuckDBPath = over.DuckDBPath
	}
	if over.ListenAddr != "" {
		out.ListenAddr = over.ListenAddr
	}
	if over.LogLevel != "" {
		out.LogLevel = over.LogLevel
	}
	if over.PresignTTL != 0 {
		out.PresignTTL = over.PresignTTL
	}
	if over.ReadConcurrency != 0 {
		out.ReadConcurrency = over.ReadConcurrency
	}
	if over.RateLimitRPS != 0 {
		out.RateLimitRPS = over.RateLimitRPS
	}
	if over.RateLimitBurst != 0 {
		out.RateLimitBurst = over.RateLimitBurst
	}
	if len(over.CORSAllowedOrigins) > 0 {
		out.CORSAllowedOrigins = over.CORSAllowedOrigins
	}
	return &out
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.PresignTTL == 0 {
		c.PresignTTL = time.Hour
	}
	if c.ReadConcurrency <= 0 {
		c.ReadConcurrency = 4
	}
	if c.RateLimitRPS == 0 {
		c.RateLimitRPS = 100
	}
	if c.RateLimitBurst == 0 {
		c.RateLimitBurst = 200
	}
	if len(c.CORSAllowedOrigins) == 0 {
		c.CORSAllowedOrigins = []string{"*"}
	}
}
