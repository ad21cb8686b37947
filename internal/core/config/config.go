// Package config provides configuration management for the clubgate
// service.
package config

import (
	"time"
)

// Config holds runtime configuration for clubgate.
type Config struct {
	DatabaseURL    string
	LogLevel       string
	LogFormat      string
	FileStorageDir string
	QueryTimeout   time.Duration
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		DatabaseURL:    "sqlite://./clubgate.db",
		LogLevel:       "info",
		LogFormat:      "json",
		FileStorageDir: "./files",
		QueryTimeout:   10 * time.Second,
	}
}
