package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"

	"github.com/fdg312/nutri-coach/internal/config"
	"github.com/fdg312/nutri-coach/internal/dbmigrate"
	"github.com/fdg312/nutri-coach/internal/httpserver"
	"github.com/fdg312/nutri-coach/internal/logging"
	"github.com/fdg312/nutri-coach/internal/telemetry"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.Env, cfg.LogLevel)

	printStartupBanner(cfg)
	validateProductionConfig(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telCfg, err := telemetry.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid telemetry configuration")
	}
	shutdownTelemetry, err := telemetry.Init(ctx, telCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("telemetry init failed")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown")
		}
	}()

	if cfg.RunMigrationsOnStartup {
		dbURL, source, _, err := dbmigrate.SelectDatabaseURL(cfg, true)
		if err != nil {
			log.Fatal().Err(err).Msg("startup migrations: no database")
		}

		log.Info().Str("command", "up").Str("using", source).Msg("startup migrations")
		if err := dbmigrate.Run(ctx, "up", dbURL); err != nil {
			log.Fatal().Err(err).Msg("startup migrations failed")
		}
		log.Info().Msg("startup migrations: completed")
	}

	server, err := httpserver.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("server init failed")
	}
	defer server.Close()

	if err := server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return
	}
	log.Info().Msg("server stopped")
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// Secrets are shown only as "set" / "not set".
func printStartupBanner(cfg *config.Config) {
	log.Info().
		Str("env", cfg.Env).
		Int("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Msg("nutri-coach api")

	log.Info().
		Str("runtime_url", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled)).
		Str("pooled", setOrNot(cfg.DatabaseURLPooled)).
		Str("direct", setOrNot(cfg.DatabaseURLDirect)).
		Bool("migrations_on_startup", cfg.RunMigrationsOnStartup).
		Msg("database")

	log.Info().
		Str("auth_mode", cfg.AuthMode).
		Bool("auth_required", cfg.AuthRequired).
		Str("jwt_secret", secretStatus(cfg.JWTSecret, "change_me")).
		Msg("auth")

	blobEv := log.Info().Str("blob_mode", cfg.Blob.Mode)
	if cfg.Blob.Mode != config.BlobModeLocal {
		blobEv = blobEv.Str("s3", cfg.Blob.S3.DiagnosticsSummary())
	}
	blobEv.Msg("exports")

	aiEv := log.Info().
		Str("ai_mode", cfg.AIMode).
		Int("max_output_tokens", cfg.AIMaxOutputTokens).
		Float64("temperature", cfg.AITemperature).
		Int("timeout_seconds", cfg.AITimeoutSeconds)
	switch cfg.AIMode {
	case config.AIModeOpenAI:
		aiEv = aiEv.Str("model", cfg.Model.OpenAIModel).Str("openai_api_key", setOrNot(cfg.OpenAIAPIKey))
	case config.AIModeGemini:
		aiEv = aiEv.Str("model", cfg.Model.GeminiModel).Str("gemini_api_key", setOrNot(cfg.Model.GeminiAPIKey))
	case config.AIModeBedrock:
		aiEv = aiEv.Str("model", cfg.Model.BedrockModelID).Str("region", cfg.Model.BedrockRegion)
	}
	aiEv.Msg("ai")

	log.Info().
		Str("plan_locality", cfg.PlanLocality).
		Int("chat_history_limit", cfg.ChatHistoryLimit).
		Msg("plans")
}

// validateProductionConfig performs fatal checks that only matter in non-local envs.
func validateProductionConfig(cfg *config.Config) {
	isProd := cfg.Env == "production" || cfg.Env == "prod" || cfg.Env == "staging"

	if cfg.Blob.Mode == config.BlobModeS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			log.Fatal().Str("missing", strings.Join(missing, ", ")).Msg("BLOB_MODE=s3 but S3 config is incomplete")
		}
	}

	if isProd && cfg.AuthRequired && cfg.JWTSecret == "change_me" {
		log.Fatal().Str("env", cfg.Env).Msg("JWT_SECRET must not be 'change_me' with AUTH_REQUIRED=1")
	}

	if isProd && cfg.DatabaseURL == "" {
		log.Fatal().Str("env", cfg.Env).Msg("no DATABASE_URL configured")
	}

	if isProd && cfg.AIMode == config.AIModeMock {
		log.Warn().Str("env", cfg.Env).Msg("AI_MODE=mock outside local environment")
	}
}

// ---- helpers (no secrets) ----

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "not set"
	}
	if v == insecureDefault {
		return fmt.Sprintf("set (DEFAULT, insecure '%s')", insecureDefault)
	}
	return "set (custom)"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set (in-memory storage)"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}
