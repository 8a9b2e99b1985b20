package langchain

import (
	"context"
	"fmt"

	"browser-harness/internal/application/port/output"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

var _ output.CompletionPort = (*Adapter)(nil)

// Adapter serves the action model through langchaingo, so OpenAI and
// Anthropic share one code path.
type Adapter struct {
	llm      llms.Model
	provider string
	model    string
	logger   output.LoggerPort
}

type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Logger   output.LoggerPort
}

func New(cfg Config) (*Adapter, error) {
	var (
		llm llms.Model
		err error
	)

	switch cfg.Provider {
	case "openai":
		opts := []lcopenai.Option{lcopenai.WithToken(cfg.APIKey), lcopenai.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, lcopenai.WithBaseURL(cfg.BaseURL))
		}
		llm, err = lcopenai.New(opts...)
	case "anthropic":
		opts := []anthropic.Option{anthropic.WithToken(cfg.APIKey), anthropic.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		llm, err = anthropic.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported langchain provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}

	return &Adapter{llm: llm, provider: cfg.Provider, model: cfg.Model, logger: cfg.Logger}, nil
}

func (a *Adapter) Complete(ctx context.Context, req output.CompletionRequest) (string, error) {
	var messages []llms.MessageContent
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))

	var opts []llms.CallOption
	if req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}
	opts = append(opts, llms.WithTemperature(0))

	if a.logger != nil {
		a.logger.Debug("Action model request", "provider", a.provider, "model", a.model, "promptLen", len(req.Prompt))
	}

	resp, err := a.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", a.provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Content, nil
}
