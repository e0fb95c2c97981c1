/*
config.go - Process configuration

PURPOSE:
  Reads the server configuration from the environment, optionally
  preloaded from a .env file, and builds the process logger.

KEYS (default):
  PORT                  8080
  DB_PATH               payroll.db
  LOG_LEVEL             info   (debug|info|warn|error)
  LOG_FORMAT            text   (text|json)
  HOLIDAY_COUNTRY       IN
  HOLIDAY_STATE         ""
  HOLIDAY_FILE          ""     optional JSON holiday calendar
  PAYROLL_WORKERS       4
  MAX_UPLOAD_BYTES      10485760
  CORS_ORIGINS          *      comma separated
  CACHE_WARM_INTERVAL   6h     0 disables the warmer
  EXCLUDE_SATURDAYS     false
  CLAMP_DAILY_WAGE      false

SEE ALSO:
  - cmd/server/main.go: flags override PORT and DB_PATH
  - salary/config.go: the calculation constants
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the server configuration.
type Config struct {
	Port              int
	DBPath            string
	LogLevel          string
	LogFormat         string
	HolidayCountry    string
	HolidayState      string
	HolidayFile       string
	Workers           int
	MaxUploadBytes    int64
	CORSOrigins       []string
	CacheWarmInterval time.Duration
	ExcludeSaturdays  bool
	ClampDailyWage    bool
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv reads the configuration from the environment only.
func FromEnv() *Config {
	return &Config{
		Port:              getEnvAsInt("PORT", 8080),
		DBPath:            getEnv("DB_PATH", "payroll.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		HolidayCountry:    getEnv("HOLIDAY_COUNTRY", "IN"),
		HolidayState:      getEnv("HOLIDAY_STATE", ""),
		HolidayFile:       getEnv("HOLIDAY_FILE", ""),
		Workers:           getEnvAsInt("PAYROLL_WORKERS", 4),
		MaxUploadBytes:    int64(getEnvAsInt("MAX_UPLOAD_BYTES", 10<<20)),
		CORSOrigins:       getEnvAsList("CORS_ORIGINS", []string{"*"}),
		CacheWarmInterval: getEnvAsDuration("CACHE_WARM_INTERVAL", 6*time.Hour),
		ExcludeSaturdays:  getEnvAsBool("EXCLUDE_SATURDAYS", false),
		ClampDailyWage:    getEnvAsBool("CLAMP_DAILY_WAGE", false),
	}
}

// Validate checks the values a server cannot start without.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("invalid worker count %d", c.Workers)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid max upload size %d", c.MaxUploadBytes)
	}
	if c.CacheWarmInterval < 0 {
		return fmt.Errorf("invalid cache warm interval %s", c.CacheWarmInterval)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	return nil
}

// NewLogger builds the process logger.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(name string, defaultVal int) int {
	if val, err := strconv.Atoi(getEnv(name, "")); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	if val, err := strconv.ParseBool(getEnv(name, "")); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(name, "")
	if valStr == "0" {
		return 0
	}
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsList(name string, defaultVal []string) []string {
	valStr := getEnv(name, "")
	if valStr == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
