package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/rs/zerolog/log"
)

const (
	BlobModeLocal = "local"
	BlobModeS3    = "s3"
	BlobModeAuto  = "auto"
)

type S3Config struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKeyID       string
	SecretAccessKey   string
	PublicBaseURL     string
	PresignTTLSeconds int
	PreferPublicURL   bool
}

func (c S3Config) MissingRequired() []string {
	missing := make([]string, 0, 6)
	if strings.TrimSpace(c.Endpoint) == "" {
		missing = append(missing, "S3_ENDPOINT")
	}
	if strings.TrimSpace(c.Region) == "" {
		missing = append(missing, "S3_REGION")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if strings.TrimSpace(c.AccessKeyID) == "" {
		missing = append(missing, "S3_ACCESS_KEY_ID")
	}
	if strings.TrimSpace(c.SecretAccessKey) == "" {
		missing = append(missing, "S3_SECRET_ACCESS_KEY")
	}
	if strings.TrimSpace(c.PublicBaseURL) == "" {
		missing = append(missing, "S3_PUBLIC_BASE_URL")
	}
	return missing
}

func (c S3Config) IsConfigured() bool {
	return len(c.MissingRequired()) == 0
}

func (c S3Config) Diagnostics() (level string, code string, msg string) {
	allEmpty := strings.TrimSpace(c.Endpoint) == "" &&
		strings.TrimSpace(c.Region) == "" &&
		strings.TrimSpace(c.Bucket) == "" &&
		strings.TrimSpace(c.AccessKeyID) == "" &&
		strings.TrimSpace(c.SecretAccessKey) == "" &&
		strings.TrimSpace(c.PublicBaseURL) == ""

	if allEmpty {
		return "INFO", "s3_not_configured", "not configured (all empty)"
	}

	missing := c.MissingRequired()
	if len(missing) > 0 {
		return "WARN", "s3_partial_config", fmt.Sprintf("partial config, missing=%v", missing)
	}

	return "INFO", "s3_ready", "ready"
}

// DiagnosticsSummary returns a detailed summary for logging (no secrets)
func (c S3Config) DiagnosticsSummary() string {
	accessKeyStatus := "not set"
	if strings.TrimSpace(c.AccessKeyID) != "" {
		accessKeyStatus = "set"
	}
	secretKeyStatus := "not set"
	if strings.TrimSpace(c.SecretAccessKey) != "" {
		secretKeyStatus = "set"
	}

	return fmt.Sprintf("endpoint=%s region=%s bucket=%s public_base_url=%s presign_ttl=%ds prefer_public_url=%t access_key_id=%s secret_access_key=%s",
		nonEmptyOrDash(c.Endpoint),
		nonEmptyOrDash(c.Region),
		nonEmptyOrDash(c.Bucket),
		nonEmptyOrDash(c.PublicBaseURL),
		c.PresignTTLSeconds,
		c.PreferPublicURL,
		accessKeyStatus,
		secretKeyStatus,
	)
}

func nonEmptyOrDash(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "-"
	}
	return v
}

type BlobConfig struct {
	Mode string // local|s3|auto
	S3   S3Config
}

// ModelConfig — параметры моделей, читаются через envdecode.
type ModelConfig struct {
	OpenAIModel    string  `env:"OPENAI_MODEL,default=gpt-4.1-mini"`
	OpenAIBaseURL  string  `env:"OPENAI_BASE_URL,default=https://api.openai.com/v1"`
	GeminiAPIKey   string  `env:"GEMINI_API_KEY"`
	GeminiModel    string  `env:"GEMINI_MODEL,default=gemini-1.5-flash"`
	GeminiBaseURL  string  `env:"GEMINI_BASE_URL,default=https://generativelanguage.googleapis.com/v1beta"`
	BedrockModelID string  `env:"BEDROCK_MODEL_ID,default=amazon.nova-lite-v1:0"`
	BedrockRegion  string  `env:"BEDROCK_REGION,default=us-east-1"`
	TopP           float32 `env:"AI_TOP_P,default=0.9"`
}

// LoadModelConfig декодирует ModelConfig из окружения.
func LoadModelConfig() (ModelConfig, error) {
	var mc ModelConfig
	if err := envdecode.Decode(&mc); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return ModelConfig{}, fmt.Errorf("decode model config: %w", err)
	}
	return mc, nil
}

const (
	AIModeMock    = "mock"
	AIModeOpenAI  = "openai"
	AIModeGemini  = "gemini"
	AIModeBedrock = "bedrock"
)

// Config содержит конфигурацию приложения
type Config struct {
	Env      string // local | staging | prod
	Port     int
	LogLevel string

	// Database
	DatabaseURL       string // runtime connection (resolved: pooled > url > direct)
	DatabaseURLRaw    string // DATABASE_URL as provided
	DatabaseURLPooled string // DATABASE_URL_POOLED as provided
	DatabaseURLDirect string // for migrations / DDL (may be empty)

	// CORS
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// Rate Limiting
	RateLimitRPS   int
	RateLimitBurst int

	Blob BlobConfig

	// Authentication
	AuthMode      string // none | dev
	AuthEnabled   bool
	AuthRequired  bool
	JWTSecret     string
	JWTIssuer     string
	JWTTTLMinutes int

	// AI
	AIMode            string // mock | openai | gemini | bedrock
	AIMaxOutputTokens int
	AITemperature     float64
	AITimeoutSeconds  int
	OpenAIAPIKey      string
	Model             ModelConfig

	// Plans & chat
	PlanLocality     string
	ChatHistoryLimit int

	// Migrations
	RunMigrationsOnStartup bool
}

// Load загружает конфигурацию из переменных окружения.
// Неверные значения логируются и заменяются дефолтами; фатальны только
// отсутствующие ключи выбранного AI-провайдера.
func Load() *Config {
	cfg := &Config{
		Env:      firstNonEmpty(os.Getenv("APP_ENV"), os.Getenv("ENV"), "local"),
		Port:     envInt("PORT", 8080),
		LogLevel: firstNonEmpty(os.Getenv("LOG_LEVEL"), "debug"),

		CORSAllowCredentials: os.Getenv("CORS_ALLOW_CREDENTIALS") == "1",
		RateLimitRPS:         envInt("RATE_LIMIT_RPS", 0),
		RateLimitBurst:       envInt("RATE_LIMIT_BURST", 0),

		RunMigrationsOnStartup: parseBoolEnv("RUN_MIGRATIONS_ON_STARTUP"),
	}
	cfg.CORSAllowedOrigins = parseCORSOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"), cfg.Env)

	loadDatabase(cfg)
	loadBlob(cfg)
	loadAuth(cfg)
	loadAI(cfg)
	loadPlans(cfg)
	return cfg
}

// loadDatabase resolves the runtime URL: DATABASE_URL_POOLED > DATABASE_URL > DATABASE_URL_DIRECT.
func loadDatabase(cfg *Config) {
	cfg.DatabaseURLPooled = strings.TrimSpace(os.Getenv("DATABASE_URL_POOLED"))
	cfg.DatabaseURLRaw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.DatabaseURLDirect = strings.TrimSpace(os.Getenv("DATABASE_URL_DIRECT"))
	cfg.DatabaseURL = firstNonEmpty(cfg.DatabaseURLPooled, cfg.DatabaseURLRaw, cfg.DatabaseURLDirect)
}

func loadBlob(cfg *Config) {
	cfg.Blob = BlobConfig{
		Mode: parseBlobMode("BLOB_MODE", BlobModeLocal),
		S3: S3Config{
			Endpoint:          strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
			Region:            strings.TrimSpace(os.Getenv("S3_REGION")),
			Bucket:            strings.TrimSpace(os.Getenv("S3_BUCKET")),
			AccessKeyID:       strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
			SecretAccessKey:   strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
			PublicBaseURL:     strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")),
			PresignTTLSeconds: positiveInt("S3_PRESIGN_TTL_SECONDS", 900),
			PreferPublicURL:   parseBoolEnv("S3_PREFER_PUBLIC_URL"),
		},
	}
}

func loadAuth(cfg *Config) {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv("AUTH_MODE")))
	switch mode {
	case "":
		mode = "none"
	case "none", "dev":
	default:
		log.Warn().Str("auth_mode", mode).Msg("unknown AUTH_MODE, fallback to none")
		mode = "none"
	}

	cfg.AuthMode = mode
	cfg.AuthEnabled = mode != "none"
	cfg.AuthRequired = cfg.AuthEnabled && parseBoolEnv("AUTH_REQUIRED")
	cfg.JWTSecret = firstNonEmpty(os.Getenv("JWT_SECRET"), "change_me")
	cfg.JWTIssuer = firstNonEmpty(os.Getenv("JWT_ISSUER"), "nutri-coach")
	cfg.JWTTTLMinutes = positiveInt("JWT_TTL_MINUTES", 10080)

	if cfg.JWTSecret == "change_me" && cfg.Env != "local" {
		log.Warn().Msg("JWT_SECRET is set to 'change_me' in non-local environment")
	}
}

func loadAI(cfg *Config) {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv("AI_MODE")))
	switch mode {
	case "":
		mode = AIModeMock
	case AIModeMock, AIModeOpenAI, AIModeGemini, AIModeBedrock:
	default:
		log.Warn().Str("ai_mode", mode).Msg("unknown AI_MODE, fallback to mock")
		mode = AIModeMock
	}
	cfg.AIMode = mode

	// Meal plans need room for four meals with ingredients.
	cfg.AIMaxOutputTokens = positiveInt("AI_MAX_OUTPUT_TOKENS", 1200)
	cfg.AITemperature = min(max(envFloat("AI_TEMPERATURE", 0.3), 0), 2)
	cfg.AITimeoutSeconds = positiveInt("AI_TIMEOUT_SECONDS", 30)
	cfg.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))

	modelCfg, err := LoadModelConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid model configuration")
	}
	cfg.Model = modelCfg

	switch {
	case mode == AIModeOpenAI && cfg.OpenAIAPIKey == "":
		log.Fatal().Msg("OPENAI_API_KEY is required when AI_MODE=openai")
	case mode == AIModeGemini && strings.TrimSpace(modelCfg.GeminiAPIKey) == "":
		log.Fatal().Msg("GEMINI_API_KEY is required when AI_MODE=gemini")
	}
}

func loadPlans(cfg *Config) {
	cfg.PlanLocality = firstNonEmpty(strings.ToLower(strings.TrimSpace(os.Getenv("PLAN_LOCALITY"))), "cl")
	cfg.ChatHistoryLimit = positiveInt("CHAT_HISTORY_LIMIT", 100)
}

// parseCORSOrigins parses CORS_ALLOWED_ORIGINS env var.
// In local mode, defaults to localhost origins if empty.
func parseCORSOrigins(raw, env string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if env == "local" {
			return []string{"http://localhost:3000", "http://localhost:8081"}
		}
		return nil // prod: deny by default
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func parseBlobMode(key string, defaultVal string) string {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if mode == "" {
		return defaultVal
	}
	switch mode {
	case BlobModeLocal, BlobModeS3, BlobModeAuto:
		return mode
	default:
		log.Warn().Str("key", key).Str("value", mode).Str("fallback", defaultVal).Msg("unknown blob mode")
		return defaultVal
	}
}

// envInt reads an int env var with a default value.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// positiveInt is envInt that also replaces non-positive values with the default.
func positiveInt(key string, defaultVal int) int {
	if v := envInt(key, defaultVal); v > 0 {
		return v
	}
	return defaultVal
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
