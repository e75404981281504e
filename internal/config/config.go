// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigDir is the default configuration directory
	DefaultConfigDir = ".memorybook/configs"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.json"
	// DefaultDatabasePath is the default sqlite path relative to the home directory
	DefaultDatabasePath = ".memorybook/db/memorybook.db"

	envPrefix = "MEMORYBOOK"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// Load reads configuration from ~/.memorybook/configs/config.json. A missing
// file yields the defaults.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(homeDir, DefaultConfigDir))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	// MEMORYBOOK_SERVER_PORT overrides server.port
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.cert_file", "")
	v.SetDefault("server.tls.key_file", "")

	v.SetDefault("database.type", defaults.Database.Type)
	v.SetDefault("database.sqlite_path", defaults.Database.SQLitePath)
	v.SetDefault("database.postgres_dsn", "")

	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.token_ttl_hours", defaults.Security.TokenTTL)
	v.SetDefault("security.issuer", defaults.Security.Issuer)

	v.SetDefault("engine.similarity_threshold", defaults.Engine.SimilarityThreshold)
	v.SetDefault("engine.summary_max_length", defaults.Engine.SummaryMaxLength)

	v.SetDefault("locking.lease_seconds", defaults.Locking.LeaseSeconds)
	v.SetDefault("locking.cleanup_interval_minutes", defaults.Locking.CleanupIntervalMinutes)

	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
}

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	if !isValidType(cfg.Database.Type, ValidDatabaseTypes()) {
		return fmt.Errorf("database.type must be 'sqlite' or 'postgres', got '%s'", cfg.Database.Type)
	}

	if cfg.Database.Type == DatabaseSQLite && cfg.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required when type is 'sqlite'")
	}
	if cfg.Database.Type == DatabasePostgres && cfg.Database.PostgresDSN == "" {
		return fmt.Errorf("database.postgres_dsn is required when type is 'postgres'")
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.TLS.Enabled && (cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "") {
		return fmt.Errorf("server.tls.cert_file and server.tls.key_file are required when tls is enabled")
	}

	if cfg.Security.TokenTTL < 1 {
		return fmt.Errorf("security.token_ttl_hours must be at least 1, got %d", cfg.Security.TokenTTL)
	}

	if cfg.Engine.SimilarityThreshold <= 0 || cfg.Engine.SimilarityThreshold > 1 {
		return fmt.Errorf("engine.similarity_threshold must be within (0, 1], got %g", cfg.Engine.SimilarityThreshold)
	}
	if cfg.Engine.SummaryMaxLength < 10 {
		return fmt.Errorf("engine.summary_max_length must be at least 10, got %d", cfg.Engine.SummaryMaxLength)
	}

	if cfg.Locking.LeaseSeconds < 1 {
		return fmt.Errorf("locking.lease_seconds must be at least 1, got %d", cfg.Locking.LeaseSeconds)
	}
	if cfg.Locking.CleanupIntervalMinutes < 1 {
		return fmt.Errorf("locking.cleanup_interval_minutes must be at least 1, got %d", cfg.Locking.CleanupIntervalMinutes)
	}

	if !isValidType(cfg.Log.Level, ValidLogLevels()) {
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got '%s'", cfg.Log.Level)
	}
	if !isValidType(cfg.Log.Format, ValidLogFormats()) {
		return fmt.Errorf("log.format must be 'json' or 'console', got '%s'", cfg.Log.Format)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, DefaultConfigDir)
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Type:       DatabaseSQLite,
			SQLitePath: filepath.Join(homeDir, DefaultDatabasePath),
		},
		Security: SecurityConfig{
			TokenTTL: 24,
			Issuer:   "memorybook",
		},
		Engine: EngineConfig{
			SimilarityThreshold: 0.3,
			SummaryMaxLength:    200,
		},
		Locking: LockingConfig{
			LeaseSeconds:           30,
			CleanupIntervalMinutes: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatJSON,
		},
	}
}

// Overrides are values supplied on the command line. Zero values are ignored.
type Overrides struct {
	DBType   string
	DBPath   string
	DBDSN    string
	Port     int
	LogLevel string
}

// ApplyEnvOverrides applies the short-form environment variables and returns
// the names of the settings it changed. Secrets are reported by name only.
func ApplyEnvOverrides(cfg *Config) []string {
	var applied []string

	if dbType := getEnv("DB_TYPE", envPrefix+"_DB_TYPE"); dbType != "" {
		cfg.Database.Type = dbType
		applied = append(applied, "database.type")
	}
	if dbPath := getEnv("DB_PATH", envPrefix+"_DB_PATH"); dbPath != "" {
		cfg.Database.SQLitePath = dbPath
		applied = append(applied, "database.sqlite_path")
	}
	if dbDSN := getEnv("DB_DSN", envPrefix+"_DB_DSN"); dbDSN != "" {
		cfg.Database.PostgresDSN = dbDSN
		applied = append(applied, "database.postgres_dsn")
	}
	if portStr := getEnv("PORT", envPrefix+"_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Server.Port = port
			applied = append(applied, "server.port")
		}
	}
	if secret := getEnv("JWT_SECRET", envPrefix+"_JWT_SECRET"); secret != "" {
		cfg.Security.JWTSecret = secret
		applied = append(applied, "security.jwt_secret")
	}

	return applied
}

// ApplyOverrides applies command line overrides, which take priority over
// the file and the environment
func ApplyOverrides(cfg *Config, o Overrides) []string {
	var applied []string

	if o.DBType != "" {
		cfg.Database.Type = o.DBType
		applied = append(applied, "database.type")
	}
	if o.DBPath != "" {
		cfg.Database.SQLitePath = o.DBPath
		applied = append(applied, "database.sqlite_path")
	}
	if o.DBDSN != "" {
		cfg.Database.PostgresDSN = o.DBDSN
		applied = append(applied, "database.postgres_dsn")
	}
	if o.Port > 0 {
		cfg.Server.Port = o.Port
		applied = append(applied, "server.port")
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
		applied = append(applied, "log.level")
	}

	return applied
}

// getEnv returns the first non-empty environment variable among names
func getEnv(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}
