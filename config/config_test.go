package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STATUS_TRANSITIONS", "")
	t.Setenv("JWT_TTL_HOURS", "")
	t.Setenv("REPORT_DAILY_LIMIT", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("REDIS_ADDRESS", "")

	cfg, err := Load()
	require.NoError(t, err)

	// Redis stays off unless an address is configured.
	assert.Empty(t, cfg.RedisAddress)

	assert.Equal(t, "strict", cfg.StatusTransitions)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 20, cfg.ReportDailyLimit)
	assert.Contains(t, cfg.CORSOrigins, "http://localhost:3001")
	assert.Error(t, cfg.ValidateServer())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STATUS_TRANSITIONS", "Permissive")
	t.Setenv("JWT_TTL_HOURS", "1")
	t.Setenv("CORS_ORIGINS", " https://admin.example.com , ,https://app.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "permissive", cfg.StatusTransitions)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"https://admin.example.com", "https://app.example.com"}, cfg.CORSOrigins)
	assert.NoError(t, cfg.ValidateServer())
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("STATUS_TRANSITIONS", "anything-goes")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STATUS_TRANSITIONS", "strict")
	t.Setenv("REPORT_DAILY_LIMIT", "ten")
	_, err = Load()
	assert.Error(t, err)
}
