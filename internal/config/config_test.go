package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("DAILY_WORD_LANGUAGES", "")

	cfg := Load()

	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, []string{"es", "fr", "de"}, cfg.DailyWordLanguages)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.True(t, cfg.RateLimitEnabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ADMIN_EMAILS", " a@x.io, ,b@x.io ")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, cfg.AdminEmails)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout)
	assert.False(t, cfg.RateLimitEnabled)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("LLM_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
}

func TestLocation(t *testing.T) {
	cfg := &Config{TimeZone: "Europe/Berlin"}
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())

	cfg.TimeZone = "Mars/Olympus"
	assert.Equal(t, time.UTC, cfg.Location())
}
