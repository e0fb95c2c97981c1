package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "PAYROLL_WORKERS", "MAX_UPLOAD_BYTES", "CORS_ORIGINS", "CACHE_WARM_INTERVAL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := FromEnv()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "payroll.db", cfg.DBPath)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 6*time.Hour, cfg.CacheWarmInterval)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("PAYROLL_WORKERS", "8")
	t.Setenv("HOLIDAY_COUNTRY", "US")
	t.Setenv("HOLIDAY_STATE", "CA")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("CACHE_WARM_INTERVAL", "0")
	t.Setenv("EXCLUDE_SATURDAYS", "true")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := FromEnv()

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "US", cfg.HolidayCountry)
	assert.Equal(t, "CA", cfg.HolidayState)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Zero(t, cfg.CacheWarmInterval)
	assert.True(t, cfg.ExcludeSaturdays)

	logger := cfg.NewLogger()
	assert.Equal(t, logrus.DebugLevel, logger.Level)
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestFromEnv_InvalidValuesUseDefaults(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("CACHE_WARM_INTERVAL", "soon")

	cfg := FromEnv()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 6*time.Hour, cfg.CacheWarmInterval)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"port":    func(c *Config) { c.Port = 0 },
		"db":      func(c *Config) { c.DBPath = "" },
		"workers": func(c *Config) { c.Workers = -1 },
		"upload":  func(c *Config) { c.MaxUploadBytes = 0 },
		"level":   func(c *Config) { c.LogLevel = "loud" },
		"format":  func(c *Config) { c.LogFormat = "xml" },
		"warm":    func(c *Config) { c.CacheWarmInterval = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_PATH=from-dotenv.db\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	t.Setenv("DB_PATH", "")
	os.Unsetenv("DB_PATH")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.db", cfg.DBPath)
}

func TestLoad_MissingDotEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	_, err = Load()
	assert.NoError(t, err)
}

func valid() *Config {
	return &Config{
		Port:           8080,
		DBPath:         ":memory:",
		LogLevel:       "info",
		LogFormat:      "text",
		Workers:        1,
		MaxUploadBytes: 1,
	}
}
