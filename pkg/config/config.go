// ABOUTME: Configuration management for the application with environment variable support
// ABOUTME: Defines configuration structures for the backend, cache, and capture source

package config

import (
	"errors"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	// Backend contains intelligence backend configuration
	Backend BackendConfig

	// Cache contains cache configuration
	Cache CacheConfig

	// Capture contains screen capture configuration
	Capture CaptureConfig
}

// BackendConfig holds intelligence backend configuration.
type BackendConfig struct {
	// URL is the backend base address
	URL string

	// Streaming selects /chat/stream over /chat for page queries
	Streaming bool
}

// CacheConfig holds cache backend configuration.
type CacheConfig struct {
	// Type specifies the cache backend (redis/memory)
	Type string

	// Redis contains Redis-specific configuration
	Redis RedisConfig

	// Memory contains in-memory cache configuration
	Memory MemoryConfig
}

// RedisConfig holds Redis-specific configuration.
type RedisConfig struct {
	// Address is the Redis server address
	Address string

	// Password is the Redis authentication password
	Password string

	// DB is the Redis database number
	DB int
}

// MemoryConfig holds in-memory cache configuration.
type MemoryConfig struct {
	// DefaultExpiration is the default TTL for cache entries in seconds
	DefaultExpiration int
}

// CaptureConfig holds screen capture configuration.
type CaptureConfig struct {
	// SourcePath is where the static capturer reads raster images from
	SourcePath string
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Backend: BackendConfig{
			URL:       getEnvOrDefault("BACKEND_URL", "http://127.0.0.1:8000"),
			Streaming: getEnvAsBoolOrDefault("BACKEND_STREAMING", true),
		},
		Cache: CacheConfig{
			Type: getEnvOrDefault("CACHE_TYPE", "memory"),
			Redis: RedisConfig{
				Address:  getEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
				Password: getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
			},
			Memory: MemoryConfig{
				DefaultExpiration: getEnvAsIntOrDefault("MEMORY_CACHE_EXPIRATION", 3600),
			},
		},
		Capture: CaptureConfig{
			SourcePath: getEnvOrDefault("CAPTURE_SOURCE", ""),
		},
	}

	return cfg, nil
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the environment variable as int or a default.
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault returns the environment variable as bool or a default.
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return errors.New("backend URL cannot be empty")
	}

	if c.Cache.Type != "redis" && c.Cache.Type != "memory" {
		return errors.New("cache type must be 'redis' or 'memory'")
	}

	if c.Cache.Type == "redis" && c.Cache.Redis.Address == "" {
		return errors.New("redis address cannot be empty when using redis cache")
	}

	return nil
}
