// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Security SecurityConfig `mapstructure:"security"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Locking  LockingConfig  `mapstructure:"locking"`
	Log      LogConfig      `mapstructure:"log"`
}

// TLSConfig holds TLS settings for the HTTP server
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string    `mapstructure:"host"`
	Port int       `mapstructure:"port"`
	TLS  TLSConfig `mapstructure:"tls"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Type        string `mapstructure:"type"` // "sqlite" or "postgres"
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// SecurityConfig holds token signing settings
type SecurityConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	TokenTTL  int    `mapstructure:"token_ttl_hours"`
	Issuer    string `mapstructure:"issuer"`
}

// EngineConfig tunes content-to-memory fusion
type EngineConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	SummaryMaxLength    int     `mapstructure:"summary_max_length"`
}

// LockingConfig holds share lock settings
type LockingConfig struct {
	LeaseSeconds           int `mapstructure:"lease_seconds"`
	CleanupIntervalMinutes int `mapstructure:"cleanup_interval_minutes"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // "json" or "console"
}

// Database types
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

// ValidDatabaseTypes returns all supported database types
func ValidDatabaseTypes() []string {
	return []string{DatabaseSQLite, DatabasePostgres}
}

// Log formats
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// ValidLogFormats returns all supported log formats
func ValidLogFormats() []string {
	return []string{LogFormatJSON, LogFormatConsole}
}

// ValidLogLevels returns all supported log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// isValidType is a generic helper to check if a type is in a list of valid types
func isValidType(aType string, validTypes []string) bool {
	for _, valid := range validTypes {
		if aType == valid {
			return true
		}
	}
	return false
}
