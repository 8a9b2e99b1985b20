package resolver

import (
	"context"
	"encoding/json"
	"fmt"

	"browser-harness/internal/application/port/output"
	"browser-harness/internal/domain/entity"
	"browser-harness/internal/infrastructure/prompts"
)

var _ output.ActionResolver = (*VisualAgentResolver)(nil)

const defaultVisualSteps = 2

type VisualConfig struct {
	Model    string
	MaxSteps int
}

// VisualAgentResolver acts by looking at screenshots and working with
// viewport coordinates. It reaches content that element grounding cannot,
// such as iframes.
type VisualAgentResolver struct {
	browser  output.BrowserPort
	llm      output.LLMPort
	model    string
	maxSteps int
	logger   output.LoggerPort
}

func NewVisualAgentResolver(browser output.BrowserPort, llm output.LLMPort, cfg VisualConfig, logger output.LoggerPort) *VisualAgentResolver {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = defaultVisualSteps
	}
	return &VisualAgentResolver{
		browser:  browser,
		llm:      llm,
		model:    cfg.Model,
		maxSteps: cfg.MaxSteps,
		logger:   logger,
	}
}

func (r *VisualAgentResolver) Kind() output.ResolverKind {
	return output.ResolverVisual
}

func (r *VisualAgentResolver) Resolve(ctx context.Context, in output.ActInput) error {
	instruction, err := prompts.Visual(prompts.VisualData{
		URL:    r.browser.CurrentURL(),
		Action: substitute(in.Action, in.Variables),
	})
	if err != nil {
		return err
	}

	messages := []entity.Message{{Role: entity.RoleSystem, Content: instruction}}

	for step := 1; step <= r.maxSteps; step++ {
		shot, err := r.browser.Screenshot(ctx)
		if err != nil {
			return err
		}
		messages = append(messages, entity.Message{
			Role: entity.RoleUser,
			ContentBlocks: []entity.ContentBlock{
				entity.TextBlock(fmt.Sprintf("Screenshot %dx%d of the current viewport.", shot.Width, shot.Height)),
				entity.ImageBlock(shot.Data, shot.MIMEType()),
			},
		})

		resp, err := r.llm.Chat(ctx, output.ChatRequest{
			Messages: messages,
			Tools:    visualTools,
			Model:    r.model,
		})
		if err != nil {
			return fmt.Errorf("visual agent request failed: %w", err)
		}
		messages = append(messages, resp.Message)

		if len(resp.Message.ToolCalls) == 0 {
			r.logger.Debug("Visual agent finished without tool call", "step", step)
			return nil
		}

		for _, tc := range resp.Message.ToolCalls {
			done, observation := r.perform(ctx, tc, scaleOf(shot))
			if done {
				r.logger.Debug("Visual agent done", "step", step, "summary", observation)
				return nil
			}
			messages = append(messages, entity.Message{
				Role:       entity.RoleTool,
				ToolCallID: tc.ID,
				Name:       tc.Name,
				Content:    observation,
			})
		}
	}

	r.logger.Debug("Visual agent step budget used", "steps", r.maxSteps)
	return nil
}

type visualArgs struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Text    string  `json:"text"`
	Key     string  `json:"key"`
	DeltaY  float64 `json:"delta_y"`
	Summary string  `json:"summary"`
}

func (r *VisualAgentResolver) perform(ctx context.Context, tc entity.ToolCall, scale float64) (bool, string) {
	var args visualArgs
	if tc.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			return false, "Error: invalid arguments: " + err.Error()
		}
	}

	var err error
	switch tc.Name {
	case "done":
		return true, args.Summary
	case "click_at":
		err = r.browser.ClickAt(ctx, args.X*scale, args.Y*scale)
	case "type_text":
		err = r.browser.TypeText(ctx, args.Text)
	case "press_key":
		err = r.browser.PressKey(ctx, args.Key)
	case "scroll":
		err = r.browser.ScrollBy(ctx, args.DeltaY*scale)
	default:
		return false, fmt.Sprintf("Error: unknown tool '%s'", tc.Name)
	}
	if err != nil {
		return false, "Error: " + err.Error()
	}
	return false, "ok"
}

func scaleOf(shot *entity.Screenshot) float64 {
	if shot.Scale > 0 {
		return shot.Scale
	}
	return 1
}

var visualTools = []entity.ToolDefinition{
	{
		Name:        "click_at",
		Description: "Click at a point of the screenshot",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"x": map[string]interface{}{"type": "number"},
				"y": map[string]interface{}{"type": "number"},
			},
			"required": []string{"x", "y"},
		},
	},
	{
		Name:        "type_text",
		Description: "Type text into the focused element",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"text": map[string]interface{}{"type": "string"},
			},
			"required": []string{"text"},
		},
	},
	{
		Name:        "press_key",
		Description: "Press a key such as Enter, Tab or Escape",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"key": map[string]interface{}{"type": "string"},
			},
			"required": []string{"key"},
		},
	},
	{
		Name:        "scroll",
		Description: "Scroll the page vertically by delta_y screenshot pixels",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"delta_y": map[string]interface{}{"type": "number"},
			},
			"required": []string{"delta_y"},
		},
	},
	{
		Name:        "done",
		Description: "Finish once the action is complete",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"summary": map[string]interface{}{"type": "string"},
			},
		},
	},
}
