package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_DRIVER", "")
	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "gcs", cfg.StorageDriver)
	assert.Equal(t, 120, cfg.RateLimitMax)
	assert.False(t, cfg.Email().Enabled())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "S3")
	t.Setenv("S3_BUCKET", "datasets-prod")
	t.Setenv("RATE_LIMIT_MAX", "30")
	t.Setenv("SMTP_HOST", "smtp.test")
	t.Setenv("MAIL_FROM", "team@nfai.test")

	cfg := LoadConfig()
	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "s3", cfg.StorageDriver)
	assert.Equal(t, "datasets-prod", cfg.S3Bucket)
	assert.Equal(t, 30, cfg.RateLimitMax)

	email := cfg.Email()
	assert.True(t, email.Enabled())
	assert.Equal(t, "team@nfai.test", email.FromEmail)
}
