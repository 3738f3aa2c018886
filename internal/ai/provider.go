package ai

import (
	"context"
	"errors"
)

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request purposes, used for logging and metrics.
const (
	PurposeMealPlan = "meal_plan"
	PurposeChat     = "chat"
)

var (
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("model returned empty response")
	// ErrBlocked is returned when the model refused or was filtered.
	ErrBlocked = errors.New("model response blocked")
)

// Provider is a generative model backend.
type Provider interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request) (Response, error)

func (f ProviderFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

type Message struct {
	Role    string
	Content string
}

type Request struct {
	Messages []Message
	// JSON asks the backend for a bare JSON object when it supports it.
	JSON bool
	// Schema is passed to backends with structured output support.
	Schema  *Schema
	Purpose string
	// Metadata is attached to spans and read by the mock backend.
	Metadata map[string]string
}

type Response struct {
	Text  string
	Model string
}

// Schema types (OpenAPI subset used by structured output APIs).
const (
	TypeObject  = "OBJECT"
	TypeArray   = "ARRAY"
	TypeString  = "STRING"
	TypeInteger = "INTEGER"
	TypeNumber  = "NUMBER"
)

// Schema describes the JSON shape the model must return.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// SplitSystem separates system messages from the conversation.
func SplitSystem(msgs []Message) (system []string, rest []Message) {
	rest = make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
