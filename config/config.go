// Package config loads service configuration from environment variables.
// A .env file in the working directory is honored for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the session service.
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Profiling ProfilingConfig
	Shutdown  ShutdownConfig
}

type ServiceConfig struct {
	Name    string
	Version string
	Env     string
	Port    string
}

type DatabaseConfig struct {
	URL string
}

// SessionConfig controls the session lifecycle engine.
type SessionConfig struct {
	// HeaderName is the request header carrying the session token.
	HeaderName string
	// DefaultTimeoutMinutes is the sliding-expiration window applied
	// when a create request does not specify one.
	DefaultTimeoutMinutes int
	// SweepIntervalMinutes is how often expired rows are deleted.
	SweepIntervalMinutes int
}

type LoggingConfig struct {
	Level string
}

type TracingConfig struct {
	Enabled    bool
	Endpoint   string
	SampleRate float64
}

type ProfilingConfig struct {
	Enabled  bool
	Endpoint string
}

type ShutdownConfig struct {
	TimeoutSeconds             int
	ReadinessDrainDelaySeconds int
}

// Load reads configuration from the environment. Missing keys fall
// back to development defaults; Validate reports the ones that cannot.
func Load() *Config {
	// Best-effort: absence of a .env file is not an error.
	_ = godotenv.Load()

	return &Config{
		Service: ServiceConfig{
			Name:    getEnv("SERVICE_NAME", "session-service"),
			Version: getEnv("SERVICE_VERSION", "dev"),
			Env:     getEnv("SERVICE_ENV", "development"),
			Port:    getEnv("SERVICE_PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Session: SessionConfig{
			HeaderName:            getEnv("SESSION_HEADER", "X-Session-Token"),
			DefaultTimeoutMinutes: getEnvInt("SESSION_DEFAULT_TIMEOUT_MINUTES", 30),
			SweepIntervalMinutes:  getEnvInt("SWEEP_INTERVAL_MINUTES", 15),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Tracing: TracingConfig{
			Enabled:    getEnvBool("TRACING_ENABLED", false),
			Endpoint:   getEnv("TRACING_ENDPOINT", "localhost:4318"),
			SampleRate: getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Profiling: ProfilingConfig{
			Enabled:  getEnvBool("PROFILING_ENABLED", false),
			Endpoint: getEnv("PROFILING_ENDPOINT", "http://localhost:4040"),
		},
		Shutdown: ShutdownConfig{
			TimeoutSeconds:             getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 10),
			ReadinessDrainDelaySeconds: getEnvInt("READINESS_DRAIN_DELAY_SECONDS", 0),
		},
	}
}

// Validate reports configuration the service cannot start without.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Session.DefaultTimeoutMinutes <= 0 {
		return fmt.Errorf("SESSION_DEFAULT_TIMEOUT_MINUTES must be positive, got %d", c.Session.DefaultTimeoutMinutes)
	}
	if c.Session.SweepIntervalMinutes <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL_MINUTES must be positive, got %d", c.Session.SweepIntervalMinutes)
	}
	return nil
}

// GetShutdownTimeoutDuration returns the HTTP shutdown timeout.
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.Shutdown.TimeoutSeconds) * time.Second
}

// GetReadinessDrainDelayDuration returns the delay between failing
// readiness and starting HTTP shutdown.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return time.Duration(c.Shutdown.ReadinessDrainDelaySeconds) * time.Second
}

// GetSweepInterval returns the expired-session sweep interval.
func (c *Config) GetSweepInterval() time.Duration {
	return time.Duration(c.Session.SweepIntervalMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
