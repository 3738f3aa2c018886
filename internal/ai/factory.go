package ai

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/fdg312/nutri-coach/internal/config"
	"github.com/fdg312/nutri-coach/internal/telemetry"
)

// NewProvider builds the backend selected by AI_MODE. Unknown modes fall
// back to the mock. The result is always instrumented; with no exporter
// configured the global otel providers are no-ops.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.AIMode))
	if mode == "" {
		mode = config.AIModeMock
	}

	var p Provider
	switch mode {
	case config.AIModeOpenAI:
		p = NewOpenAIProvider(cfg)
	case config.AIModeGemini:
		p = NewGeminiProvider(cfg)
	case config.AIModeBedrock:
		bp, err := NewBedrockProviderFromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		p = bp
	default:
		mode = config.AIModeMock
		p = NewMockProvider()
	}

	return NewInstrumentedProvider(p, mode,
		otel.Tracer(telemetry.TracerName),
		otel.Meter(telemetry.MeterName),
	), nil
}
