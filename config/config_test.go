package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_PREFER", "")
	t.Setenv("REPORT_CRON", "")
	t.Setenv("RATE_LIMIT_MAX_WAIT", "")
	t.Setenv("RATE_LIMIT_BLOCK", "")

	cfg := Load()
	assert.Equal(t, "gemini", cfg.LLMPrefer)
	assert.Equal(t, "@every 60m", cfg.ReportCron)
	assert.Equal(t, time.Hour, cfg.RateLimitMaxWait)
	assert.False(t, cfg.RateLimitBlock)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_PREFER", "openrouter")
	t.Setenv("RATE_LIMIT_BLOCK", "true")
	t.Setenv("RATE_LIMIT_MAX_WAIT", "90s")
	t.Setenv("REPORTS_DIR", "/tmp/r")

	cfg := Load()
	assert.Equal(t, "openrouter", cfg.LLMPrefer)
	assert.True(t, cfg.RateLimitBlock)
	assert.Equal(t, 90*time.Second, cfg.RateLimitMaxWait)
	assert.Equal(t, "/tmp/r", cfg.ReportsDir)
}

func TestEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_DUR", "soon")
	assert.True(t, envBool("X_BOOL", true))
	assert.Equal(t, time.Minute, envDuration("X_DUR", time.Minute))
}
