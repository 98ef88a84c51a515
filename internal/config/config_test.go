package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, time.Hour, cfg.PresignTTL)
	assert.Equal(t, 4, cfg.ReadConcurrency)
	assert.Equal(t, 100.0, cfg.RateLimitRPS)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.HasS3Config())
}

func TestLoadFromEnv_S3Fields(t *testing.T) {
	t.Setenv("S3_KEY_ID", "AKID")
	t.Setenv("S3_SECRET", "shh")
	t.Setenv("S3_REGION", "us-east-1")
	t.Setenv("S3_BUCKET", "warehouse")
	t.Setenv("PRESIGN_TTL", "30m")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.HasS3Config())
	assert.Equal(t, "warehouse", cfg.Bucket())
	assert.Equal(t, 30*time.Minute, cfg.PresignTTL)
}

func TestLoadFromEnv_InvalidTTL(t *testing.T) {
	t.Setenv("PRESIGN_TTL", "soon")
	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRESIGN_TTL")
}

func TestLoadFromFile_EnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lakecat.yaml")
	content := []byte("s3_bucket: file-bucket\nlisten_addr: \":9000\"\nlog_level: debug\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("S3_BUCKET", "env-bucket")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "env-bucket", cfg.Bucket())
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.level}
		assert.Equal(t, tt.want, cfg.SlogLevel(), "level %q", tt.level)
	}
}
