package di

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"browser-harness/internal/application/port/output"
	"browser-harness/internal/config"
	"browser-harness/internal/infrastructure/llm/gemini"
	"browser-harness/internal/infrastructure/llm/langchain"
	"browser-harness/internal/infrastructure/llm/openrouter"
	"browser-harness/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompletionModel(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	tests := []struct {
		provider string
		check    func(t *testing.T, model interface{})
	}{
		{config.ProviderOpenAI, func(t *testing.T, model interface{}) { assert.IsType(t, &langchain.Adapter{}, model) }},
		{config.ProviderAnthropic, func(t *testing.T, model interface{}) { assert.IsType(t, &langchain.Adapter{}, model) }},
		{config.ProviderGemini, func(t *testing.T, model interface{}) { assert.IsType(t, &gemini.Adapter{}, model) }},
		{config.ProviderOpenRouter, func(t *testing.T, model interface{}) { assert.IsType(t, &openrouter.OpenRouterAdapter{}, model) }},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := &config.Config{
				Trajectory: config.TrajectoryConfig{APIKey: "test-key"},
				Action: config.ActionConfig{
					Provider:     tt.provider,
					OpenAIKey:    "test-key",
					AnthropicKey: "test-key",
					GeminiKey:    "test-key",
				},
			}
			model, err := NewCompletionModel(ctx, cfg, "test-model", log)
			require.NoError(t, err)
			tt.check(t, model)
		})
	}
}

func TestNewCompletionModel_UnknownProvider(t *testing.T) {
	cfg := &config.Config{Action: config.ActionConfig{Provider: "mistral"}}
	_, err := NewCompletionModel(context.Background(), cfg, "m", logger.NewNop())
	assert.ErrorContains(t, err, `unknown action provider "mistral"`)
}

func TestNewCompletionModel_OpenRouterCompletes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "openai/gpt-4o-mini", body.Model)
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"Example Domain"}}]}`)
	}))
	defer server.Close()

	cfg := &config.Config{
		Trajectory: config.TrajectoryConfig{APIKey: "or-key", BaseURL: server.URL},
		Action:     config.ActionConfig{Provider: config.ProviderOpenRouter},
	}
	model, err := NewCompletionModel(context.Background(), cfg, "openai/gpt-4o-mini", logger.NewNop())
	require.NoError(t, err)

	text, err := model.Complete(context.Background(), output.CompletionRequest{Prompt: "headline?"})
	require.NoError(t, err)
	assert.Equal(t, "Example Domain", text)
}
