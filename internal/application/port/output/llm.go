package output

import (
	"context"

	"browser-harness/internal/domain/entity"
)

type LLMPort interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type StreamingLLMPort interface {
	LLMPort
	ChatStream(ctx context.Context, req ChatRequest, onChunk func(StreamChunk)) (*ChatResponse, error)
}

type ChatRequest struct {
	Messages    []entity.Message
	Tools       []entity.ToolDefinition
	Temperature float32
	Model       string
}

type ChatResponse struct {
	Message entity.Message
}

type StreamChunk struct {
	Content   string
	ToolCalls []entity.ToolCall
	Done      bool
}

// CompletionPort is the single-shot text model used for grounding,
// extraction summaries and structured output.
type CompletionPort interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type CompletionRequest struct {
	System string
	Prompt string
	JSON   bool
}
