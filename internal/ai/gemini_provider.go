package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fdg312/nutri-coach/internal/config"
)

const structuredMimeType = "application/json"

// GeminiProvider calls the generateContent REST endpoint. There is no
// internal retry: a failed call surfaces to the caller, which decides.
type GeminiProvider struct {
	apiKey      string
	model       string
	baseURL     string
	maxTokens   int
	temperature float64
	topP        float32
	httpClient  *http.Client
}

func NewGeminiProvider(cfg *config.Config) *GeminiProvider {
	timeoutSeconds := cfg.AITimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}

	return &GeminiProvider{
		apiKey:      cfg.Model.GeminiAPIKey,
		model:       cfg.Model.GeminiModel,
		baseURL:     strings.TrimRight(cfg.Model.GeminiBaseURL, "/"),
		maxTokens:   cfg.AIMaxOutputTokens,
		temperature: cfg.AITemperature,
		topP:        cfg.Model.TopP,
		httpClient:  &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
	}
}

type geminiPayload struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	TopP             float32 `json:"topP,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *Schema `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	ModelVersion string `json:"modelVersion"`
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (Response, error) {
	system, conversation := SplitSystem(req.Messages)

	payload := geminiPayload{
		Contents: make([]geminiContent, 0, len(conversation)),
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     p.temperature,
			TopP:            p.topP,
			MaxOutputTokens: p.maxTokens,
		},
	}
	if len(system) > 0 {
		payload.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: strings.Join(system, "\n\n")}},
		}
	}
	for _, m := range conversation {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		payload.Contents = append(payload.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}
	if req.JSON {
		payload.GenerationConfig.ResponseMimeType = structuredMimeType
		payload.GenerationConfig.ResponseSchema = req.Schema
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, url.PathEscape(p.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("gemini returned status %s: %s", resp.Status, snippet(raw))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Response{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return Response{}, fmt.Errorf("%w: %s", ErrBlocked, parsed.PromptFeedback.BlockReason)
	}
	if len(parsed.Candidates) == 0 {
		return Response{}, ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		if reason := parsed.Candidates[0].FinishReason; reason == "SAFETY" || reason == "RECITATION" {
			return Response{}, fmt.Errorf("%w: %s", ErrBlocked, reason)
		}
		return Response{}, ErrEmptyResponse
	}

	model := parsed.ModelVersion
	if model == "" {
		model = p.model
	}
	return Response{Text: text, Model: model}, nil
}
