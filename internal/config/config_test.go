package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "ENV", "PORT", "AI_MODE", "AUTH_MODE", "PLAN_LOCALITY",
		"CHAT_HISTORY_LIMIT", "BLOB_MODE", "DATABASE_URL",
		"DATABASE_URL_POOLED", "DATABASE_URL_DIRECT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	require.NotNil(t, cfg)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, AIModeMock, cfg.AIMode)
	assert.Equal(t, "none", cfg.AuthMode)
	assert.False(t, cfg.AuthEnabled)
	assert.Equal(t, "cl", cfg.PlanLocality)
	assert.Equal(t, 100, cfg.ChatHistoryLimit)
	assert.Equal(t, BlobModeLocal, cfg.Blob.Mode)
	assert.Equal(t, "gemini-1.5-flash", cfg.Model.GeminiModel)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadDatabasePriority(t *testing.T) {
	t.Setenv("DATABASE_URL_POOLED", "postgres://pooled")
	t.Setenv("DATABASE_URL", "postgres://url")
	t.Setenv("DATABASE_URL_DIRECT", "postgres://direct")

	cfg := Load()
	assert.Equal(t, "postgres://pooled", cfg.DatabaseURL)
	assert.Equal(t, "postgres://direct", cfg.DatabaseURLDirect)
}

func TestLoadUnknownModesFallBack(t *testing.T) {
	t.Setenv("AI_MODE", "llama")
	t.Setenv("AUTH_MODE", "siwa")
	t.Setenv("BLOB_MODE", "ftp")

	cfg := Load()
	assert.Equal(t, AIModeMock, cfg.AIMode)
	assert.Equal(t, "none", cfg.AuthMode)
	assert.Equal(t, BlobModeLocal, cfg.Blob.Mode)
}

func TestLoadClampsAISettings(t *testing.T) {
	t.Setenv("AI_TEMPERATURE", "5")
	t.Setenv("AI_TIMEOUT_SECONDS", "-1")
	t.Setenv("CHAT_HISTORY_LIMIT", "0")

	cfg := Load()
	assert.InDelta(t, 2.0, cfg.AITemperature, 0.0001)
	assert.Equal(t, 30, cfg.AITimeoutSeconds)
	assert.Equal(t, 100, cfg.ChatHistoryLimit)
}

func TestAuthRequiredNeedsAuthMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "none")
	t.Setenv("AUTH_REQUIRED", "1")
	assert.False(t, Load().AuthRequired)

	t.Setenv("AUTH_MODE", "dev")
	assert.True(t, Load().AuthRequired)
}

func TestParseCORSOrigins(t *testing.T) {
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8081"}, parseCORSOrigins("", "local"))
	assert.Nil(t, parseCORSOrigins("", "prod"))
	assert.Equal(t, []string{"https://a.cl", "https://b.cl"}, parseCORSOrigins(" https://a.cl , ,https://b.cl", "prod"))
}

func TestPositiveInt(t *testing.T) {
	t.Setenv("NUTRI_TEST_INT", "0")
	assert.Equal(t, 7, positiveInt("NUTRI_TEST_INT", 7))

	t.Setenv("NUTRI_TEST_INT", "-3")
	assert.Equal(t, 7, positiveInt("NUTRI_TEST_INT", 7))

	t.Setenv("NUTRI_TEST_INT", "12")
	assert.Equal(t, 12, positiveInt("NUTRI_TEST_INT", 7))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", " "))
}
