// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Letter   LetterConfig
	Batch    BatchConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 3000)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"3000"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response. A batch
	// answers only when it finishes, so this is 0 (no limit) by default.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown,
	// including a running batch (default: 5m)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"5m"`

	// RequestTimeout is the middleware timeout for non-batch requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// StorageConfig selects where the pending and archive tables live.
type StorageConfig struct {
	// Driver is "file" (xlsx/csv in Dir) or "postgres" (default: file)
	Driver string `env:"STORAGE_DRIVER" default:"file"`

	// Dir is the directory table files are resolved against (default: .)
	Dir string `env:"STORAGE_DIR" default:"."`

	// PendingSource is the table of rows still to send
	PendingSource string `env:"PENDING_SOURCE" default:"payroll-info.xlsx"`

	// ArchiveSource is the append-only table of sent rows
	ArchiveSource string `env:"ARCHIVE_SOURCE" default:"payroll-info_sent.xlsx"`

	// ArchiveSheet is the worksheet name used in the archive workbook
	ArchiveSheet string `env:"ARCHIVE_SHEET" default:"Sent Payroll Info"`
}

// DatabaseConfig holds database connection settings for the postgres driver.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required for STORAGE_DRIVER=postgres)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// SMTPConfig holds mail server settings.
type SMTPConfig struct {
	Host string `env:"SMTP_HOST"`
	Port int    `env:"SMTP_PORT" default:"587"`

	// User doubles as the sender address when From is unset
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS" envAlt:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`

	// Timeout bounds a single delivery attempt (default: 30s)
	Timeout time.Duration `env:"SMTP_TIMEOUT" default:"30s"`
}

// LetterConfig holds the letter and email text. Multi-line values may use
// the two-character sequence \n as a line break.
type LetterConfig struct {
	CompanyName string `env:"COMPANY_NAME"`
	Header      string `env:"SALARY_REVIEW_HEADER"`
	Year        string `env:"SALARY_REVIEW_YEAR"`
	Intro       string `env:"SALARY_REVIEW_INTRO"`
	Details     string `env:"SALARY_REVIEW_DETAILS"`
	Note        string `env:"SALARY_REVIEW_NOTE"`
	Tax         string `env:"SALARY_REVIEW_TAX"`
	Conclusion  string `env:"SALARY_REVIEW_CONCLUSION"`
	Signature   string `env:"SALARY_REVIEW_SIGNATURE"`
	Footer      string `env:"FOOTER_TEXT"`
	Currency    string `env:"CURRENCY" default:"KShs"`

	Subject string `env:"SALARY_REVIEW_SUBJECT"`
	Body    string `env:"SALARY_REVIEW_BODY"`
	Body2   string `env:"SALARY_REVIEW_BODY2"`

	// TemplateFile is an optional YAML file whose values override the above
	TemplateFile string `env:"LETTER_TEMPLATE_FILE"`
}

// BatchConfig holds batch coordination settings.
type BatchConfig struct {
	// LockWait is how long a trigger waits for a running batch before
	// giving up with 409 Conflict (default: 5s)
	LockWait time.Duration `env:"BATCH_LOCK_WAIT" default:"5s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// TriggerLimit is requests per minute for batch triggers (default: 5)
	TriggerLimit int `env:"RATE_LIMIT_TRIGGER" default:"5"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects the trigger endpoints (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Sender returns the From address, falling back to the SMTP user.
func (c *SMTPConfig) Sender() string {
	if c.From != "" {
		return c.From
	}
	return c.User
}
