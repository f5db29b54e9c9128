package llm

import (
	"context"

	"letterflow/appconfig"
	"letterflow/schema"
)

type LLMClient interface {
	GenerateInference(
		ctx context.Context,
		messages []Message,
		callback func(chunk string) error,
		opts ...LLMOption,
	) error

	GetModel() string
}

type LLMSettings struct {
	model       string  // model name
	temperature float64 // randomness (0.0 to 1.0)
	maxTokens   int     // maximum tokens to generate
	system      string  // system prompt
}

type LLMOption func(*LLMSettings)

// Common options for all LLM providers
func WithTemperature(temp float64) LLMOption {
	return func(s *LLMSettings) { s.temperature = temp }
}

func WithMaxTokens(tokens int) LLMOption {
	return func(s *LLMSettings) { s.maxTokens = tokens }
}

func WithSystemPrompt(prompt string) LLMOption {
	return func(s *LLMSettings) { s.system = prompt }
}

type Message struct {
	Role    string `json:"role"`    // "user", "assistant", "system"
	Content string `json:"content"` // the message content
}

// NewClient builds the client for the configured llm_provider selector.
func NewClient(cfg *appconfig.AppConfig) (LLMClient, error) {
	switch cfg.LLMProvider {
	case "chatgpt":
		return NewChatGPTClient(cfg.ChatGPTModel)
	case "claude":
		return NewClaudeClient(cfg.ClaudeModel)
	case "llama":
		return NewLlamaClient(cfg.LlamaModel)
	}
	return nil, schema.Errorf(schema.KindConfiguration, "unknown llm_provider: %s", cfg.LLMProvider)
}
