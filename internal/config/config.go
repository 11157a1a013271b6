package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port       int    `yaml:"port" env:"TALKPOINT_PORT"`
	Host       string `yaml:"host" env:"TALKPOINT_HOST"`
	CORSOrigin string `yaml:"cors_origin" env:"TALKPOINT_CORS_ORIGIN"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	// Driver is "postgres" or "memory"
	Driver      string `yaml:"driver" env:"TALKPOINT_DB_DRIVER"`
	Host        string `yaml:"host" env:"TALKPOINT_DB_HOST"`
	Port        int    `yaml:"port" env:"TALKPOINT_DB_PORT"`
	User        string `yaml:"user" env:"TALKPOINT_DB_USER"`
	Password    string `yaml:"password" env:"TALKPOINT_DB_PASSWORD"`
	DBName      string `yaml:"dbname" env:"TALKPOINT_DB_NAME"`
	SSLMode     string `yaml:"sslmode" env:"TALKPOINT_DB_SSLMODE"`
	MaxConns    int32  `yaml:"max_conns" env:"TALKPOINT_DB_MAX_CONNS"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"TALKPOINT_DB_AUTO_MIGRATE"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret" env:"TALKPOINT_JWT_SECRET"`
}

// AuthConfig holds signup and verification settings
type AuthConfig struct {
	EmailDomain string        `yaml:"email_domain" env:"TALKPOINT_EMAIL_DOMAIN"`
	CodeTTL     time.Duration `yaml:"code_ttl" env:"TALKPOINT_CODE_TTL"`
	BcryptCost  int           `yaml:"bcrypt_cost" env:"TALKPOINT_BCRYPT_COST"`
}

// StorageConfig holds S3-compatible image storage configuration.
// Images stay inline on the post when Bucket is empty.
type StorageConfig struct {
	Region    string `yaml:"region" env:"TALKPOINT_S3_REGION"`
	Bucket    string `yaml:"s3_bucket" env:"TALKPOINT_S3_BUCKET"`
	AccessKey string `yaml:"access_key" env:"TALKPOINT_S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"TALKPOINT_S3_SECRET_KEY"`
	Endpoint  string `yaml:"endpoint" env:"TALKPOINT_S3_ENDPOINT"`
	PublicURL string `yaml:"public_url" env:"TALKPOINT_S3_PUBLIC_URL"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level" env:"TALKPOINT_LOG_LEVEL"`
	Format string `yaml:"format" env:"TALKPOINT_LOG_FORMAT"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       3000,
			CORSOrigin: "*",
		},
		Database: DatabaseConfig{
			Driver:      "postgres",
			Host:        "localhost",
			Port:        5432,
			User:        "postgres",
			DBName:      "talkpoint",
			SSLMode:     "disable",
			MaxConns:    10,
			AutoMigrate: true,
		},
		Auth: AuthConfig{
			EmailDomain: "louisville.edu",
			CodeTTL:     15 * time.Minute,
			BcryptCost:  10,
		},
		Storage: StorageConfig{
			Region: "us-east-1",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file, then applies a .env file and
// TALKPOINT_* environment variables on top. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration the server cannot start with
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
