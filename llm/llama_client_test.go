package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLlamaClientGenerateInference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)

		var request map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "llama3.1:8b", request["model"])

		messages, ok := request["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 2)
		first := messages[0].(map[string]any)
		assert.Equal(t, "system", first["role"])
		assert.Equal(t, "You are a test assistant", first["content"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model":      "llama3.1:8b",
			"created_at": time.Now().Format(time.RFC3339),
			"message":    map[string]any{"role": "assistant", "content": "Hello from Llama"},
			"done":       true,
		})
	}))
	defer server.Close()

	t.Setenv("OLLAMA_HOST", server.URL)
	client, err := NewLlamaClient("llama3.1:8b")
	require.NoError(t, err)
	assert.Equal(t, "llama3.1:8b", client.GetModel())

	var result string
	err = client.GenerateInference(context.Background(),
		[]Message{{Role: "user", Content: "Hello"}},
		func(chunk string) error {
			result = chunk
			return nil
		},
		WithSystemPrompt("You are a test assistant"))

	require.NoError(t, err)
	assert.Equal(t, "Hello from Llama", result)
}
