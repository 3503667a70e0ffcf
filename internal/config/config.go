// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir             string // Base directory for the reports database and model snapshots (always absolute)
	Port                int
	LogLevel            string
	DevMode             bool
	EngineVersion       string // Capability tier tag: "3.0", "3.4" or "4.0"
	StreamWorkers       int    // 0 = use the capability profile's stream budget
	ReportRetentionDays int    // Analysis reports older than this are pruned
	ModelSnapshotPath   string // Pattern store snapshot file ("" = snapshots disabled)
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic
	// 1. Check FUSOR_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path
	// 4. Ensure directory exists
	dataDir := getEnv("FUSOR_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		Port:                getEnvAsInt("FUSOR_PORT", 8002),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		EngineVersion:       getEnv("ENGINE_VERSION", "4.0"),
		StreamWorkers:       getEnvAsInt("STREAM_WORKERS", 0),
		ReportRetentionDays: getEnvAsInt("REPORT_RETENTION_DAYS", 30),
		ModelSnapshotPath:   getEnv("MODEL_SNAPSHOT_PATH", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.StreamWorkers < 0 {
		return fmt.Errorf("stream workers must be >= 0, got %d", c.StreamWorkers)
	}
	if c.ReportRetentionDays < 1 {
		return fmt.Errorf("report retention must be at least 1 day, got %d", c.ReportRetentionDays)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
