package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"
)

// LlamaClient runs inference on a local Ollama daemon. The daemon address
// comes from OLLAMA_HOST, defaulting to localhost.
type LlamaClient struct {
	client *api.Client
	model  string
}

func NewLlamaClient(model string) (*LlamaClient, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("error creating ollama client: %w", err)
	}

	return &LlamaClient{
		client: client,
		model:  model,
	}, nil
}

func (c *LlamaClient) GetModel() string {
	return c.model
}

func (c *LlamaClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := LLMSettings{
		model:       c.model,
		temperature: 0.0,
		maxTokens:   4096,
	}

	// Apply options
	for _, opt := range opts {
		opt(&settings)
	}

	chatMessages := make([]api.Message, 0, len(messages)+1)
	if settings.system != "" {
		chatMessages = append(chatMessages, api.Message{Role: "system", Content: settings.system})
	}
	for _, m := range messages {
		chatMessages = append(chatMessages, api.Message{Role: m.Role, Content: m.Content})
	}

	stream := false
	request := &api.ChatRequest{
		Model:    settings.model,
		Messages: chatMessages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": settings.temperature,
			"num_predict": settings.maxTokens,
		},
	}

	var response strings.Builder
	err := c.client.Chat(ctx, request, func(resp api.ChatResponse) error {
		response.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}

	return callback(response.String())
}
