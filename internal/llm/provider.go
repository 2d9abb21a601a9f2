package llm

import (
	"context"
	"encoding/json"
)

// Provider generates structured JSON from a prompt.
type Provider interface {
	// Generate sends req and returns the model output. When req.Schema is
	// set, the provider asks for JSON matching it and validates the result
	// before returning.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	System   string
	Messages []Message

	// Schema is the JSON Schema the response must conform to. When nil, the
	// response Content is the raw text.
	Schema *Schema

	MaxTokens int

	// Temperature controls randomness in [0, 1]. Zero leaves the provider
	// default in place.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies the schema to the provider and keys the compiled
	// schema cache, e.g. "lecture-quiz".
	Name        string
	Description string
	Definition  map[string]any
}

// Response holds the LLM's output.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserPrompt builds a single-turn request.
func UserPrompt(system, prompt string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	}
}
