package blob

import (
	"context"
	"fmt"
	"strings"

	appcfg "github.com/fdg312/nutri-coach/internal/config"
	"github.com/rs/zerolog"
)

// ExportsPrefix — префикс ключей для экспортов плана.
const ExportsPrefix = "exports/"

// NewBlobStore builds a blob store using mode local|s3|auto.
// A nil Store means exports stay in the metadata storage.
func NewBlobStore(ctx context.Context, cfg appcfg.BlobConfig, logger zerolog.Logger) (Store, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = appcfg.BlobModeLocal
	}
	logger = logger.With().Str("component", "blob").Logger()

	switch mode {
	case appcfg.BlobModeLocal:
		logger.Info().Str("mode", "local").Msg("blob store selected (forced)")
		return nil, appcfg.BlobModeLocal, nil

	case appcfg.BlobModeAuto:
		if !cfg.S3.IsConfigured() {
			level, code, msg := cfg.S3.Diagnostics()
			logger.Info().
				Str("s3_level", level).
				Str("code", code).
				Str("summary", cfg.S3.DiagnosticsSummary()).
				Msg(msg)
			logger.Info().Str("mode", "local").Msg("blob store selected (auto, S3 not configured)")
			return nil, appcfg.BlobModeLocal, nil
		}

		store, err := newS3FromConfig(ctx, cfg.S3)
		if err != nil {
			logger.Warn().Err(err).Msg("S3 init failed, fallback to local")
			return nil, appcfg.BlobModeLocal, nil
		}

		logger.Info().Str("mode", "s3").Str("summary", cfg.S3.DiagnosticsSummary()).Msg("blob store selected (auto, configured)")
		return store, appcfg.BlobModeS3, nil

	case appcfg.BlobModeS3:
		if !cfg.S3.IsConfigured() {
			missing := cfg.S3.MissingRequired()
			logger.Error().
				Str("code", "s3_config_incomplete").
				Strs("missing", missing).
				Str("summary", cfg.S3.DiagnosticsSummary()).
				Msg("S3 requested but not configured")
			return nil, "", fmt.Errorf("BLOB_MODE=s3 requested but missing required config: %s", strings.Join(missing, ", "))
		}

		store, err := newS3FromConfig(ctx, cfg.S3)
		if err != nil {
			logger.Error().Err(err).Msg("S3 init failed")
			return nil, "", fmt.Errorf("BLOB_MODE=s3 init failed: %w", err)
		}

		logger.Info().Str("mode", "s3").Str("summary", cfg.S3.DiagnosticsSummary()).Msg("blob store selected (forced)")
		return store, appcfg.BlobModeS3, nil

	default:
		return nil, "", fmt.Errorf("unsupported blob mode: %s", mode)
	}
}

func newS3FromConfig(ctx context.Context, c appcfg.S3Config) (*S3Store, error) {
	return NewS3Store(ctx, c.Endpoint, c.Region, c.Bucket, c.AccessKeyID, c.SecretAccessKey, ExportsPrefix)
}
