package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/validprompt?sslmode=disable")
	t.Setenv("FRONTEND_URL", "")
	t.Setenv("USAGE_BACKEND", "")
	t.Setenv("DAILY_LIMIT", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("LOCAL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("OPENAI_BASE_URL", "")
	t.Setenv("OPENAI_MODEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "", cfg.AllowedOrigin)
	assert.Equal(t, 10, cfg.DailyLimit)
	assert.Equal(t, BackendPostgres, cfg.UsageBackend)
	assert.Equal(t, "postgres", cfg.SQLDriver())
	assert.Equal(t, "https://api.openai.com/v1", cfg.Upstream.BaseURL)
	assert.Equal(t, "gpt-5-nano", cfg.Upstream.Model)
	assert.Equal(t, "warning", cfg.Log.Level)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.False(t, cfg.AdminEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FRONTEND_URL", " https://validprompt.app ")
	t.Setenv("USAGE_BACKEND", "SQLite")
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("DAILY_LIMIT", "3")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:9999/v1/")
	t.Setenv("LOCAL", "true")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://validprompt.app", cfg.AllowedOrigin)
	assert.Equal(t, BackendSQLite, cfg.UsageBackend)
	assert.Equal(t, "sqlite", cfg.SQLDriver())
	assert.Equal(t, 3, cfg.DailyLimit)
	assert.True(t, cfg.AdminEnabled())
	assert.Equal(t, "http://localhost:9999/v1", cfg.Upstream.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "postgres without url",
			env:  map[string]string{"USAGE_BACKEND": "postgres", "DATABASE_URL": ""},
		},
		{
			name: "unknown backend",
			env:  map[string]string{"USAGE_BACKEND": "mongo"},
		},
		{
			name: "non positive limit",
			env:  map[string]string{"USAGE_BACKEND": "memory", "DAILY_LIMIT": "0"},
		},
		{
			name: "sink without bucket",
			env: map[string]string{
				"USAGE_BACKEND":          "memory",
				"LOGGING_SINK_ENABLED":   "true",
				"LOGGING_SINK_S3_BUCKET": "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DAILY_LIMIT", "")
			t.Setenv("LOGGING_SINK_ENABLED", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestRequireUpstream(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireUpstream())

	cfg.Upstream.APIKey = "sk-test"
	assert.NoError(t, cfg.RequireUpstream())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("VALIDPROMPT_TEST_A=from-file\nVALIDPROMPT_TEST_B=from-file\n"), 0o600))

	t.Setenv("VALIDPROMPT_TEST_A", "from-env")
	t.Setenv("VALIDPROMPT_TEST_B", "")
	os.Unsetenv("VALIDPROMPT_TEST_B")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))

	assert.Equal(t, "from-env", os.Getenv("VALIDPROMPT_TEST_A"))
	assert.Equal(t, "from-file", os.Getenv("VALIDPROMPT_TEST_B"))
}
