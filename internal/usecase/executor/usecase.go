package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"browser-harness/internal/application/port/input"
	"browser-harness/internal/application/port/output"
	"browser-harness/internal/domain/entity"
	"browser-harness/internal/infrastructure/prompts"

	"github.com/google/uuid"
)

var _ input.TaskExecutor = (*UseCase)(nil)

// ActionDispatcher runs one tool call and reports its outcome.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, req entity.ActionRequest) entity.ActionResult
}

type Config struct {
	SystemPrompt string
	MaxSteps     int
	Model        string
	ReplayFile   string
}

func DefaultConfig() Config {
	return Config{MaxSteps: 50}
}

type UseCase struct {
	llm        output.StreamingLLMPort
	structured output.CompletionPort
	session    output.SessionPort
	tools      output.ToolRegistry
	dispatcher ActionDispatcher
	ui         output.UserInteractionPort
	logger     output.LoggerPort
	cfg        Config
}

func New(
	llm output.StreamingLLMPort,
	structured output.CompletionPort,
	session output.SessionPort,
	tools output.ToolRegistry,
	dispatcher ActionDispatcher,
	ui output.UserInteractionPort,
	logger output.LoggerPort,
	cfg Config,
) *UseCase {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultConfig().MaxSteps
	}
	return &UseCase{
		llm:        llm,
		structured: structured,
		session:    session,
		tools:      tools,
		dispatcher: dispatcher,
		ui:         ui,
		logger:     logger,
		cfg:        cfg,
	}
}

func (uc *UseCase) Execute(ctx context.Context, req input.TaskRequest) (*entity.TrajectoryResult, error) {
	id := uuid.NewString()
	log := uc.logger.WithField("trajectory", id)

	defer func() {
		if err := uc.session.Close(); err != nil {
			log.Warn("Failed to close browser session", "error", err)
		}
	}()

	prompt, err := prompts.Task(prompts.TaskData{Query: req.Query, Schema: string(req.Schema)})
	if err != nil {
		return nil, err
	}

	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: uc.cfg.SystemPrompt},
		{Role: entity.RoleUser, Content: prompt},
	}
	toolDefs := uc.tools.Definitions()
	replay := newReplayLog(id, req.Query)

	result := &entity.TrajectoryResult{ID: id}
	log.Info("Starting trajectory", "query", req.Query, "maxSteps", uc.cfg.MaxSteps)

	for step := 1; step <= uc.cfg.MaxSteps; step++ {
		result.Steps = step
		uc.ui.ShowStep(ctx, step, uc.cfg.MaxSteps)
		log.Debug("Starting step", "step", step)

		resp, err := uc.llm.ChatStream(ctx, output.ChatRequest{
			Messages:    messages,
			Tools:       toolDefs,
			Temperature: 0.0,
			Model:       uc.cfg.Model,
		}, func(chunk output.StreamChunk) {
			if chunk.Content != "" {
				uc.ui.StreamText(ctx, chunk.Content)
			}
		})
		if err != nil {
			result.Transcript = messages
			return result, fmt.Errorf("llm request failed: %w", err)
		}

		messages = append(messages, resp.Message)
		if resp.Message.Content != "" {
			result.FinalAnswer = resp.Message.Content
		}

		if len(resp.Message.ToolCalls) == 0 {
			break
		}

		for _, tc := range resp.Message.ToolCalls {
			uc.ui.ShowToolStart(ctx, tc.Name, entity.RedactArguments(tc.Arguments))
			res := uc.dispatcher.Dispatch(ctx, entity.ActionRequest{
				ID:        tc.ID,
				ToolName:  entity.ToolName(tc.Name),
				Arguments: tc.Arguments,
			})
			uc.ui.ShowToolResult(ctx, tc.Name, summarize(res), !res.Success)
			replay.add(step, tc, res, uc.session)
			messages = append(messages, toolMessages(tc, res)...)

			// the browser is gone; further steps would only fail the same way
			if errors.Is(res.Err, entity.ErrSessionLost) {
				result.Transcript = StripScreenshots(messages)
				uc.writeReplay(log, replay)
				log.Error("Trajectory aborted", "step", step, "error", res.Err)
				return result, fmt.Errorf("trajectory aborted at step %d: %w", step, res.Err)
			}
		}

		if step == uc.cfg.MaxSteps {
			log.Warn("Step budget exhausted", "maxSteps", uc.cfg.MaxSteps)
		}
	}

	if err := uc.session.Close(); err != nil {
		log.Warn("Failed to close browser session", "error", err)
	}

	result.Transcript = StripScreenshots(messages)
	uc.ui.ShowFinal(ctx, result.FinalAnswer)

	if len(req.Schema) > 0 {
		structured, err := uc.structuredOutput(ctx, result.Transcript, req.Schema)
		if err != nil {
			log.Error("Structured output failed", "error", err)
		} else {
			result.Structured = structured
		}
	}

	uc.writeReplay(log, replay)

	log.Info("Trajectory finished", "steps", result.Steps, "answerLen", len(result.FinalAnswer))
	return result, nil
}

func (uc *UseCase) writeReplay(log output.LoggerPort, replay *replayLog) {
	if uc.cfg.ReplayFile == "" {
		return
	}
	if err := replay.write(uc.cfg.ReplayFile); err != nil {
		log.Warn("Failed to write replay", "file", uc.cfg.ReplayFile, "error", err)
	}
}

// toolMessages turns a result into conversation messages. Tool messages
// carry text only, so image blocks follow in a separate user message.
func toolMessages(tc entity.ToolCall, res entity.ActionResult) []entity.Message {
	var text, images []entity.ContentBlock
	for _, b := range res.ContentBlocks {
		if b.Type == entity.ContentTypeImage {
			images = append(images, b)
		} else {
			text = append(text, b)
		}
	}

	content := res.Text()
	if content == "" && len(images) > 0 {
		content = "Screenshot captured."
	}

	msgs := []entity.Message{{
		Role:          entity.RoleTool,
		ToolCallID:    tc.ID,
		Name:          tc.Name,
		Content:       content,
		ContentBlocks: text,
	}}
	if len(images) > 0 {
		msgs = append(msgs, entity.Message{
			Role:          entity.RoleUser,
			Name:          tc.Name,
			ContentBlocks: append([]entity.ContentBlock{entity.TextBlock("Result of " + tc.Name + ":")}, images...),
		})
	}
	return msgs
}

// StripScreenshots drops image content from a transcript. Messages left
// without content get a placeholder so the turn order stays intact.
func StripScreenshots(messages []entity.Message) []entity.Message {
	out := make([]entity.Message, 0, len(messages))
	for _, m := range messages {
		if !m.HasImages() {
			out = append(out, m)
			continue
		}
		blocks := make([]entity.ContentBlock, 0, len(m.ContentBlocks))
		for _, b := range m.ContentBlocks {
			if b.Type != entity.ContentTypeImage {
				blocks = append(blocks, b)
			}
		}
		m.ContentBlocks = blocks
		if m.Content == "" && len(blocks) == 0 {
			m.Content = "[screenshot omitted]"
		}
		out = append(out, m)
	}
	return out
}

type transcriptEntry struct {
	Role      string            `json:"role"`
	Name      string            `json:"name,omitempty"`
	Content   string            `json:"content,omitempty"`
	ToolCalls []entity.ToolCall `json:"tool_calls,omitempty"`
}

func (uc *UseCase) structuredOutput(ctx context.Context, transcript []entity.Message, schema json.RawMessage) (json.RawMessage, error) {
	entries := make([]transcriptEntry, 0, len(transcript))
	for _, m := range transcript {
		if m.Role == entity.RoleSystem {
			continue
		}
		content := m.Content
		if content == "" {
			content = entity.ActionResult{ContentBlocks: m.ContentBlocks}.Text()
		}
		entries = append(entries, transcriptEntry{Role: string(m.Role), Name: m.Name, Content: content, ToolCalls: m.ToolCalls})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.Structured(prompts.StructuredData{Transcript: string(data), Schema: string(schema)})
	if err != nil {
		return nil, err
	}

	answer, err := uc.structured.Complete(ctx, output.CompletionRequest{
		System: prompts.StructuredSystem,
		Prompt: prompt,
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}

	answer = strings.TrimSpace(answer)
	if !json.Valid([]byte(answer)) {
		return nil, fmt.Errorf("structured output is not valid JSON")
	}
	return json.RawMessage(answer), nil
}

func summarize(res entity.ActionResult) string {
	if res.Binary != nil && res.Payload == "" {
		return fmt.Sprintf("<%d bytes image, %s>", len(res.Binary), res.Duration.Round(time.Millisecond))
	}
	return res.Text()
}
