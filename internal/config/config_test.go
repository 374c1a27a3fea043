package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "study_planner.db", cfg.DatabaseURL)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, 60*time.Second, cfg.OracleTimeout)
	assert.Equal(t, "09:00", cfg.ReminderTime)
	assert.Equal(t, "20:00", cfg.HabitsTime)
	assert.Equal(t, time.Local, cfg.Location)
	assert.False(t, cfg.OracleEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_DRIVER", "Mongo")
	t.Setenv("DATABASE_URL", "mongodb://localhost:27017")
	t.Setenv("ORACLE_TIMEOUT", "15s")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMongo, cfg.DatabaseDriver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.DatabaseURL)
	assert.Equal(t, 15*time.Second, cfg.OracleTimeout)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.OracleEnabled())
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("ENV", "test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"),
		[]byte("JWT_SECRET=from-file\nHTTP_ADDR=:9090\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("JWT_SECRET")
		_ = os.Unsetenv("HTTP_ADDR")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{"JWT_SECRET": ""}},
		{name: "unknown driver", env: map[string]string{"DATABASE_DRIVER": "postgres"}},
		{name: "bad reminder time", env: map[string]string{"REMINDER_TIME": "9am"}},
		{name: "bad habits time", env: map[string]string{"HABITS_TIME": "25:00"}},
		{name: "unknown timezone", env: map[string]string{"TIMEZONE": "Mars/Olympus"}},
		{name: "zero oracle timeout", env: map[string]string{"ORACLE_TIMEOUT": "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			t.Setenv("JWT_SECRET", "s3cret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
