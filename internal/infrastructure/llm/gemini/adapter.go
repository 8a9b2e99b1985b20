package gemini

import (
	"context"
	"fmt"

	"browser-harness/internal/application/port/output"

	"google.golang.org/genai"
)

var _ output.CompletionPort = (*Adapter)(nil)

type Adapter struct {
	client *genai.Client
	model  string
	logger output.LoggerPort
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  output.LoggerPort
}

func New(ctx context.Context, cfg Config) (*Adapter, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Adapter{client: client, model: cfg.Model, logger: cfg.Logger}, nil
}

func (a *Adapter) Complete(ctx context.Context, req output.CompletionRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	if a.logger != nil {
		a.logger.Debug("Gemini request", "model", a.model, "promptLen", len(req.Prompt))
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty gemini response")
	}
	return text, nil
}
