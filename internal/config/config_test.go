package config_test

import (
	"testing"

	"github.com/dom/photo-gallery/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_URL", "http://localhost:5173")
	t.Setenv("PORT", "3000")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("MINIO_ENDPOINT", "localhost")
	t.Setenv("MINIO_PORT", "9000")
	t.Setenv("MINIO_ACCESS_KEY", "minio")
	t.Setenv("MINIO_SECRET_KEY", "minio123")
	t.Setenv("MINIO_PUBLIC_URL", "http://localhost:9000")
}

func TestLoad(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTPS", "true")
	t.Setenv("MAX_UPLOAD_MB", "5")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "http://localhost:5173", cfg.AppURL)
	assert.True(t, cfg.HTTPS)
	assert.False(t, cfg.MinioSSL)
	assert.Equal(t, 9000, cfg.MinioPort)
	assert.Equal(t, "gallery", cfg.Bucket)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 30, cfg.AuthRateLimitPerMinute)
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		wantErr string
	}{
		{name: "app url", unset: "APP_URL", wantErr: "APP_URL"},
		{name: "port", unset: "PORT", wantErr: "PORT"},
		{name: "redis", unset: "REDIS_URL", wantErr: "REDIS_URL"},
		{name: "minio endpoint", unset: "MINIO_ENDPOINT", wantErr: "MINIO_ENDPOINT"},
		{name: "minio secret", unset: "MINIO_SECRET_KEY", wantErr: "MINIO_SECRET_KEY"},
		{name: "minio public url", unset: "MINIO_PUBLIC_URL", wantErr: "MINIO_PUBLIC_URL"},
		{name: "minio port", unset: "MINIO_PORT", wantErr: "MINIO_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_InvalidMinioPort(t *testing.T) {
	setRequired(t)
	t.Setenv("MINIO_PORT", "nine-thousand")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MINIO_PORT")
}
