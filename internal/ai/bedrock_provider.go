package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/rs/zerolog/log"

	"github.com/fdg312/nutri-coach/internal/config"
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type BedrockOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// BedrockProvider talks to the Bedrock Converse API.
type BedrockProvider struct {
	brc  bedrockRuntimeClient
	opts BedrockOptions
}

func NewBedrockProvider(brc bedrockRuntimeClient, opts BedrockOptions) *BedrockProvider {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1200
	}
	if opts.TopP <= 0 {
		opts.TopP = 0.9
	}
	return &BedrockProvider{brc: brc, opts: opts}
}

// NewBedrockProviderFromConfig loads AWS credentials from the default chain.
func NewBedrockProviderFromConfig(ctx context.Context, cfg *config.Config) (*BedrockProvider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Model.BedrockRegion),
		awsconfig.WithRetryMaxAttempts(2),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewBedrockProvider(bedrockruntime.NewFromConfig(awsCfg), BedrockOptions{
		ModelID:     cfg.Model.BedrockModelID,
		MaxTokens:   int32(cfg.AIMaxOutputTokens),
		Temperature: float32(cfg.AITemperature),
		TopP:        cfg.Model.TopP,
	}), nil
}

func (p *BedrockProvider) Generate(ctx context.Context, req Request) (Response, error) {
	system, conversation := SplitSystem(req.Messages)

	var sys []types.SystemContentBlock
	for _, s := range system {
		sys = append(sys, &types.SystemContentBlockMemberText{Value: s})
	}

	msgs := make([]types.Message, 0, len(conversation))
	for _, m := range conversation {
		role := types.ConversationRoleUser
		if m.Role == RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		msgs = append(msgs, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
		})
	}

	in := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(p.opts.ModelID),
		System:   sys,
		Messages: msgs,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(p.opts.MaxTokens),
			Temperature: aws.Float32(p.opts.Temperature),
			TopP:        aws.Float32(p.opts.TopP),
		},
	}

	out, err := p.brc.Converse(ctx, in)
	if err != nil {
		return Response{}, fmt.Errorf("bedrock converse: %w", err)
	}

	ev := log.Debug().Str("model", p.opts.ModelID).Str("stop_reason", string(out.StopReason))
	if out.Usage != nil {
		ev = ev.Int32("input_tokens", aws.ToInt32(out.Usage.InputTokens)).Int32("output_tokens", aws.ToInt32(out.Usage.OutputTokens))
	}
	ev.Msg("bedrock converse finished")

	switch out.StopReason {
	case types.StopReasonMaxTokens:
		return Response{}, fmt.Errorf("bedrock: model hit max tokens (%d)", p.opts.MaxTokens)
	case types.StopReasonContentFiltered, types.StopReasonGuardrailIntervened:
		return Response{}, ErrBlocked
	}

	text := textFromConverse(out)
	if text == "" {
		return Response{}, ErrEmptyResponse
	}
	return Response{Text: text, Model: p.opts.ModelID}, nil
}

// textFromConverse joins the text blocks of the assistant message.
func textFromConverse(out *bedrockruntime.ConverseOutput) string {
	if out == nil || out.Output == nil {
		return ""
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return ""
	}

	texts := make([]string, 0, len(msg.Value.Content))
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n"))
}
