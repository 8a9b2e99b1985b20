package testutil

import (
	"context"
	"fmt"
	"sync"

	"browser-harness/internal/application/port/output"
	"browser-harness/internal/domain/entity"
)

var (
	_ output.StreamingLLMPort = (*ScriptedLLM)(nil)
	_ output.CompletionPort   = (*ScriptedCompletion)(nil)
)

// ScriptedLLM replays canned assistant messages in order and keeps every
// request it saw.
type ScriptedLLM struct {
	mu        sync.Mutex
	Responses []entity.Message
	Requests  []output.ChatRequest
}

func (s *ScriptedLLM) next(req output.ChatRequest) (entity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, req)
	if len(s.Responses) == 0 {
		return entity.Message{}, fmt.Errorf("scripted llm: no response left")
	}
	msg := s.Responses[0]
	s.Responses = s.Responses[1:]
	return msg, nil
}

func (s *ScriptedLLM) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	msg, err := s.next(req)
	if err != nil {
		return nil, err
	}
	return &output.ChatResponse{Message: msg}, nil
}

func (s *ScriptedLLM) ChatStream(ctx context.Context, req output.ChatRequest, onChunk func(output.StreamChunk)) (*output.ChatResponse, error) {
	msg, err := s.next(req)
	if err != nil {
		return nil, err
	}
	if onChunk != nil {
		if msg.Content != "" {
			onChunk(output.StreamChunk{Content: msg.Content})
		}
		onChunk(output.StreamChunk{ToolCalls: msg.ToolCalls, Done: true})
	}
	return &output.ChatResponse{Message: msg}, nil
}

func (s *ScriptedLLM) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}

// ScriptedCompletion answers Complete calls with Answer, or with the
// result of Func when set.
type ScriptedCompletion struct {
	mu       sync.Mutex
	Answer   string
	Func     func(req output.CompletionRequest) (string, error)
	Requests []output.CompletionRequest
}

func (s *ScriptedCompletion) Complete(ctx context.Context, req output.CompletionRequest) (string, error) {
	s.mu.Lock()
	s.Requests = append(s.Requests, req)
	fn, answer := s.Func, s.Answer
	s.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return answer, nil
}

func ToolCallMessage(id, name, arguments string) entity.Message {
	tc := entity.ToolCall{ID: id, Name: name, Arguments: arguments}
	return entity.Message{
		Role:          entity.RoleAssistant,
		ToolCalls:     []entity.ToolCall{tc},
		ContentBlocks: []entity.ContentBlock{{Type: entity.ContentTypeToolUse, ToolUse: &tc}},
	}
}

func AnswerMessage(text string) entity.Message {
	return entity.Message{
		Role:          entity.RoleAssistant,
		Content:       text,
		ContentBlocks: []entity.ContentBlock{entity.TextBlock(text)},
	}
}
