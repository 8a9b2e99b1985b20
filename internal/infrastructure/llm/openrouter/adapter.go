package openrouter

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"browser-harness/internal/application/port/output"
	"browser-harness/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
)

var (
	_ output.StreamingLLMPort = (*OpenRouterAdapter)(nil)
	_ output.CompletionPort   = (*OpenRouterAdapter)(nil)
)

type OpenRouterAdapter struct {
	client *openai.Client
	model  string
	logger output.LoggerPort
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  output.LoggerPort
}

func DefaultConfig(apiKey, model string) Config {
	return Config{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://openrouter.ai/api/v1",
	}
}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var size int64
	if req.Body != nil {
		bodyBytes, _ := io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		size = int64(len(bodyBytes))
	}
	t.logger.Debug("HTTP Request", "method", req.Method, "url", req.URL.String(), "bytes", size)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Warn("HTTP Request failed", "url", req.URL.String(), "error", err)
		return nil, err
	}
	t.logger.Debug("HTTP Response", "status", resp.Status, "statusCode", resp.StatusCode)
	return resp, nil
}

func NewOpenRouterAdapter(cfg Config) *OpenRouterAdapter {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	if cfg.Logger != nil {
		config.HTTPClient = &http.Client{
			Transport: &loggingTransport{base: http.DefaultTransport, logger: cfg.Logger},
		}
	}

	return &OpenRouterAdapter{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

func (a *OpenRouterAdapter) modelFor(req output.ChatRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return a.model
}

func (a *OpenRouterAdapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	request := openai.ChatCompletionRequest{
		Model:       a.modelFor(req),
		Messages:    convertMessages(req.Messages),
		Temperature: req.Temperature,
	}
	if len(req.Tools) > 0 {
		request.Tools = convertTools(req.Tools)
		request.ToolChoice = "auto"
	}

	resp, err := a.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &output.ChatResponse{
		Message: convertResponseMessage(resp.Choices[0].Message),
	}, nil
}

// Complete lets the trajectory endpoint double as an action model.
func (a *OpenRouterAdapter) Complete(ctx context.Context, req output.CompletionRequest) (string, error) {
	messages := []openai.ChatCompletionMessage{}
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	request := openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: messages,
	}
	if req.JSON {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := a.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (a *OpenRouterAdapter) ChatStream(ctx context.Context, req output.ChatRequest, onChunk func(output.StreamChunk)) (*output.ChatResponse, error) {
	messages := convertMessages(req.Messages)
	tools := convertTools(req.Tools)

	if a.logger != nil {
		a.logger.Debug("Creating chat completion stream",
			"model", a.modelFor(req),
			"messagesCount", len(messages),
			"toolsCount", len(tools))
	}

	request := openai.ChatCompletionRequest{
		Model:       a.modelFor(req),
		Messages:    messages,
		Temperature: req.Temperature,
		Stream:      true,
	}
	if len(tools) > 0 {
		request.Tools = tools
		request.ToolChoice = "auto"
	}

	stream, err := a.client.CreateChatCompletionStream(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("chat stream failed: %w", err)
	}
	defer stream.Close()

	acc := newStreamAccumulator()
	for {
		chunk, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("stream recv error: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if text := acc.add(chunk.Choices[0].Delta); text != "" && onChunk != nil {
			onChunk(output.StreamChunk{Content: text})
		}
	}

	finalMessage := acc.message()
	if a.logger != nil {
		a.logger.Debug("Stream completed",
			"textLen", len(finalMessage.Content),
			"toolCallsCount", len(finalMessage.ToolCalls))
	}
	if onChunk != nil {
		onChunk(output.StreamChunk{ToolCalls: finalMessage.ToolCalls, Done: true})
	}

	return &output.ChatResponse{Message: finalMessage}, nil
}

// streamAccumulator merges streamed deltas; tool call fragments arrive
// keyed by index and are concatenated in index order.
type streamAccumulator struct {
	thinking  strings.Builder
	text      strings.Builder
	toolCalls map[int]*entity.ToolCall
}

func newStreamAccumulator() *streamAccumulator {
	return &streamAccumulator{toolCalls: make(map[int]*entity.ToolCall)}
}

func (s *streamAccumulator) add(delta openai.ChatCompletionStreamChoiceDelta) string {
	if delta.ReasoningContent != "" {
		s.thinking.WriteString(delta.ReasoningContent)
	}
	if delta.Content != "" {
		s.text.WriteString(delta.Content)
	}

	for _, tc := range delta.ToolCalls {
		idx := len(s.toolCalls)
		if tc.Index != nil {
			idx = *tc.Index
		}
		existing, ok := s.toolCalls[idx]
		if !ok {
			s.toolCalls[idx] = &entity.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments}
			continue
		}
		existing.Arguments += tc.Function.Arguments
		if tc.Function.Name != "" {
			existing.Name = tc.Function.Name
		}
		if tc.ID != "" {
			existing.ID = tc.ID
		}
	}
	return delta.Content
}

func (s *streamAccumulator) message() entity.Message {
	msg := entity.Message{Role: entity.RoleAssistant}

	if s.thinking.Len() > 0 {
		msg.ContentBlocks = append(msg.ContentBlocks, entity.ContentBlock{
			Type:     entity.ContentTypeThinking,
			Thinking: s.thinking.String(),
		})
	}
	if s.text.Len() > 0 {
		msg.Content = s.text.String()
		msg.ContentBlocks = append(msg.ContentBlocks, entity.TextBlock(msg.Content))
	}

	indices := make([]int, 0, len(s.toolCalls))
	for idx := range s.toolCalls {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for _, idx := range indices {
		tc := *s.toolCalls[idx]
		msg.ToolCalls = append(msg.ToolCalls, tc)
		msg.ContentBlocks = append(msg.ContentBlocks, entity.ContentBlock{Type: entity.ContentTypeToolUse, ToolUse: &tc})
	}
	return msg
}

func convertMessages(messages []entity.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
			Name:       msg.Name,
		}

		if len(msg.ContentBlocks) > 0 {
			if msg.HasImages() {
				oaiMsg.Content = ""
				oaiMsg.MultiContent = convertParts(msg.ContentBlocks)
			} else if text := flattenBlocks(msg.ContentBlocks); text != "" {
				oaiMsg.Content = text
			}
		}

		for _, tc := range msg.ToolCalls {
			oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}

		result = append(result, oaiMsg)
	}
	return result
}

func flattenBlocks(blocks []entity.ContentBlock) string {
	var sb strings.Builder
	for _, block := range blocks {
		switch {
		case block.Type == entity.ContentTypeThinking && block.Thinking != "":
			sb.WriteString("<thinking>\n" + block.Thinking + "\n</thinking>\n")
		case block.Type == entity.ContentTypeText && block.Text != "":
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteString("\n")
			}
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

func convertParts(blocks []entity.ContentBlock) []openai.ChatMessagePart {
	parts := make([]openai.ChatMessagePart, 0, len(blocks))
	for _, block := range blocks {
		switch block.Type {
		case entity.ContentTypeText:
			parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: block.Text})
		case entity.ContentTypeImage:
			if block.Image == nil {
				continue
			}
			url := "data:" + block.Image.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(block.Image.Data)
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: url, Detail: openai.ImageURLDetailAuto},
			})
		}
	}
	return parts
}

func convertTools(tools []entity.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return result
}

func convertResponseMessage(msg openai.ChatCompletionMessage) entity.Message {
	result := entity.Message{
		Role:    entity.MessageRole(msg.Role),
		Content: msg.Content,
	}

	if msg.Content != "" {
		result.ContentBlocks = append(result.ContentBlocks, entity.TextBlock(msg.Content))
	}

	for _, tc := range msg.ToolCalls {
		toolCall := entity.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}
		result.ToolCalls = append(result.ToolCalls, toolCall)
		result.ContentBlocks = append(result.ContentBlocks, entity.ContentBlock{
			Type:    entity.ContentTypeToolUse,
			ToolUse: &toolCall,
		})
	}

	return result
}
