package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Backend       BackendConfig       `yaml:"backend"`
	Database      DatabaseConfig      `yaml:"database"`
	JWT           JWTConfig           `yaml:"jwt"`
	Log           LogConfig           `yaml:"log"`
	Offline       OfflineConfig       `yaml:"offline"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

// BackendConfig selects the source of truth.
type BackendConfig struct {
	Type string `yaml:"type"` // "postgres" or "memory"
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Database      string `yaml:"database"`
	SSLMode       string `yaml:"ssl_mode"`
	MaxOpenConns  int    `yaml:"max_open_conns"`
	RunMigrations bool   `yaml:"run_migrations"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// OfflineConfig controls the local cache used while the backend is down.
type OfflineConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// NotificationsConfig contains message catalog and delivery channel settings
type NotificationsConfig struct {
	Locale   string         `yaml:"locale"`
	SendGrid SendGridConfig `yaml:"sendgrid"`
	Firebase FirebaseConfig `yaml:"firebase"`
}

// SendGridConfig enables email delivery when APIKey is set
type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// FirebaseConfig enables push delivery when ProjectID is set
type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// SchedulerConfig contains cron schedule settings (with seconds)
type SchedulerConfig struct {
	DrainOutbox      string `yaml:"drain_outbox"`
	RecomputeRatings string `yaml:"recompute_ratings"`
}

// Load reads configuration from a YAML file. A .env file in the working
// directory, when present, is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	envInt("SERVER_PORT", &c.Server.Port)

	if val := os.Getenv("BACKEND_TYPE"); val != "" {
		c.Backend.Type = val
	}

	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	envInt("DB_PORT", &c.Database.Port)
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Offline
	if val := os.Getenv("OFFLINE_PATH"); val != "" {
		c.Offline.Path = val
	}
	if val := os.Getenv("OFFLINE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Offline.Enabled = b
		}
	}

	// Notifications
	if val := os.Getenv("NOTIFICATIONS_LOCALE"); val != "" {
		c.Notifications.Locale = val
	}
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Notifications.SendGrid.APIKey = val
	}
	if val := os.Getenv("FIREBASE_PROJECT_ID"); val != "" {
		c.Notifications.Firebase.ProjectID = val
	}
	if val := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); val != "" {
		c.Notifications.Firebase.CredentialsFile = val
	}
}

func envInt(key string, target *int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*target = n
		}
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds <= 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds <= 0 {
		c.Server.WriteTimeoutSeconds = 15
	}

	// Backend validation
	if c.Backend.Type == "" {
		c.Backend.Type = BackendPostgres
	}
	switch c.Backend.Type {
	case BackendPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend type: %q", c.Backend.Type)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry <= 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Offline defaults
	if c.Offline.Enabled && c.Offline.Path == "" {
		c.Offline.Path = "data/offline.db"
	}
	if c.Offline.MaxAttempts <= 0 {
		c.Offline.MaxAttempts = 5
	}

	// Notifications
	if c.Notifications.Locale == "" {
		c.Notifications.Locale = "pt"
	}
	if c.Notifications.SendGrid.APIKey != "" && c.Notifications.SendGrid.FromEmail == "" {
		return fmt.Errorf("sendgrid from_email is required when an api key is set")
	}

	// Scheduler defaults
	if c.Scheduler.DrainOutbox == "" {
		c.Scheduler.DrainOutbox = "0 * * * * *" // every minute
	}
	if c.Scheduler.RecomputeRatings == "" {
		c.Scheduler.RecomputeRatings = "0 0 3 * * *" // 3 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenExpiry) * time.Minute
}
