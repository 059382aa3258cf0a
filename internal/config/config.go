// Package config provides centralized configuration management for the application.
// It loads configuration from defaults, an optional YAML file and environment
// variables, and validates all settings on startup to fail fast on misconfiguration.
// Configuration is read once; there is no hot reload.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Upload     UploadConfig     `yaml:"upload"`
	Validation ValidationConfig `yaml:"validation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0" yaml:"host"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080" yaml:"port"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s" yaml:"read_timeout"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s" yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s" yaml:"shutdown_timeout"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s" yaml:"request_timeout"`

	// RateLimit is the number of requests allowed per client IP per minute; 0 disables (default: 100)
	RateLimit int `env:"SERVER_RATE_LIMIT" default:"100" yaml:"rate_limit"`
}

// DatabaseConfig holds store connection and pool settings.
type DatabaseConfig struct {
	// URL is a full PostgreSQL connection string. When set it takes
	// precedence over Host/Port/User/Password/Name.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" yaml:"url"`

	Host     string `env:"DB_HOST" default:"localhost" yaml:"host"`
	Port     int    `env:"DB_PORT" default:"5432" yaml:"port"`
	User     string `env:"DB_USER" yaml:"user"`
	Password string `env:"DB_PASSWORD" yaml:"password"`
	Name     string `env:"DB_NAME" yaml:"name"`
	SSLMode  string `env:"DB_SSLMODE" default:"prefer" yaml:"sslmode"`

	// PoolName identifies the pool in diagnostics and pg_stat_activity (default: user_upload)
	PoolName string `env:"DB_POOL_NAME" default:"user_upload" yaml:"pool_name"`

	// PoolSize is the maximum number of simultaneously leased connections (default: 5)
	PoolSize int `env:"DB_POOL_SIZE" default:"5" yaml:"pool_size"`

	// AcquireTimeout is how long a lease waits for a free connection (default: 10s)
	AcquireTimeout time.Duration `env:"DB_ACQUIRE_TIMEOUT" default:"10s" yaml:"acquire_timeout"`

	// ConnectTimeout bounds the initial connection and ping (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s" yaml:"connect_timeout"`
}

// UploadConfig holds file intake settings.
type UploadConfig struct {
	// ArchiveDir receives timestamped copies of every accepted file (default: uploads)
	ArchiveDir string `env:"UPLOAD_ARCHIVE_DIR" default:"uploads" yaml:"archive_dir"`

	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600" yaml:"max_file_size"`

	// Timeout is the maximum duration for a single ingestion (default: 10m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"10m" yaml:"timeout"`
}

// ValidationConfig holds column-level limits applied after the character policy.
type ValidationConfig struct {
	// MaxFieldLength caps name and email length (default: 100, the column width)
	MaxFieldLength int `env:"VALIDATION_MAX_FIELD_LENGTH" default:"100" yaml:"max_field_length"`

	// MinAge and MaxAge bound the integer age column (default: 0-150)
	MinAge int `env:"VALIDATION_MIN_AGE" default:"0" yaml:"min_age"`
	MaxAge int `env:"VALIDATION_MAX_AGE" default:"150" yaml:"max_age"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info" yaml:"level"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text" yaml:"format"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DSN returns the PostgreSQL connection string for the configured store.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else if c.User != "" {
		u.User = url.User(c.User)
	}
	if c.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", c.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// DatabaseName returns the configured database name, reading it from URL when set.
func (c *DatabaseConfig) DatabaseName() string {
	if c.URL == "" {
		return c.Name
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return ""
	}
	if len(u.Path) > 1 {
		return u.Path[1:]
	}
	return ""
}

// String returns a safe string representation of the config for logging.
// Credentials are masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: {Addr: %q}, Database: {Host: %q, Name: %q, URL: [MASKED], Password: [MASKED], PoolName: %q, PoolSize: %d}, "+
			"Upload: {ArchiveDir: %q, MaxFileSize: %d}, Logging: {Level: %q, Format: %q}}",
		c.Server.Addr(),
		c.Database.Host, c.Database.DatabaseName(), c.Database.PoolName, c.Database.PoolSize,
		c.Upload.ArchiveDir, c.Upload.MaxFileSize,
		c.Logging.Level, c.Logging.Format,
	)
}
