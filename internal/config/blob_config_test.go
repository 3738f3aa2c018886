package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fullS3() S3Config {
	return S3Config{
		Endpoint:        "https://storage.yandexcloud.net",
		Region:          "ru-central1",
		Bucket:          "plans",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		PublicBaseURL:   "https://storage.yandexcloud.net/plans",
	}
}

func TestS3ConfigIsConfigured(t *testing.T) {
	assert.False(t, S3Config{}.IsConfigured())
	assert.True(t, fullS3().IsConfigured())
}

func TestS3ConfigMissingRequired(t *testing.T) {
	cfg := S3Config{
		Endpoint: "https://storage.yandexcloud.net",
		Bucket:   "plans",
	}
	assert.Equal(t,
		[]string{"S3_REGION", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "S3_PUBLIC_BASE_URL"},
		cfg.MissingRequired(),
	)
}

func TestS3ConfigDiagnostics(t *testing.T) {
	partial := fullS3()
	partial.Region = ""

	tests := []struct {
		name      string
		cfg       S3Config
		wantLevel string
		wantCode  string
	}{
		{"not configured", S3Config{}, "INFO", "s3_not_configured"},
		{"endpoint only", S3Config{Endpoint: "https://storage.yandexcloud.net"}, "WARN", "s3_partial_config"},
		{"region missing", partial, "WARN", "s3_partial_config"},
		{"ready", fullS3(), "INFO", "s3_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, code, _ := tt.cfg.Diagnostics()
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestS3ConfigDiagnosticsSummaryHidesSecrets(t *testing.T) {
	summary := fullS3().DiagnosticsSummary()
	assert.NotContains(t, summary, "secret=secret")
	assert.Contains(t, summary, "secret_access_key=set")
	assert.Contains(t, summary, "bucket=plans")
}
