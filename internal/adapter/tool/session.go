package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"browser-harness/internal/application/port/output"
	"browser-harness/internal/domain/entity"
)

type CloseTool struct {
	session output.SessionPort
}

func NewCloseTool(session output.SessionPort) *CloseTool {
	return &CloseTool{session: session}
}

func (t *CloseTool) Name() entity.ToolName { return entity.ToolClose }
func (t *CloseTool) Description() string   { return "End the browser session" }
func (t *CloseTool) Parameters() map[string]interface{} {
	return emptyParameters()
}

func (t *CloseTool) Execute(ctx context.Context, args string) (*output.ToolOutput, error) {
	if err := t.session.Close(); err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	return &output.ToolOutput{Text: "Closed the browser session"}, nil
}

// maxWaitSeconds keeps a wait well inside time.Duration's range.
const maxWaitSeconds = 300

type WaitTool struct{}

func NewWaitTool() *WaitTool {
	return &WaitTool{}
}

func (t *WaitTool) Name() entity.ToolName { return entity.ToolWait }
func (t *WaitTool) Description() string {
	return "Wait for a specific amount of time. Useful when you need to wait for a page to load or for an element to be visible."
}
func (t *WaitTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"seconds": map[string]interface{}{
				"type":             "number",
				"description":      "The number of seconds to wait",
				"exclusiveMinimum": 0,
				"maximum":          maxWaitSeconds,
			},
		},
		"required":             []string{"seconds"},
		"additionalProperties": false,
	}
}

func (t *WaitTool) Execute(ctx context.Context, args string) (*output.ToolOutput, error) {
	var input struct {
		Seconds float64 `json:"seconds"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return nil, err
	}
	if input.Seconds <= 0 || input.Seconds > maxWaitSeconds {
		return nil, fmt.Errorf("%w: seconds must be in (0, %d], got %v", entity.ErrInvalidParameters, maxWaitSeconds, input.Seconds)
	}

	timer := time.NewTimer(time.Duration(input.Seconds * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-timer.C:
		return &output.ToolOutput{Text: fmt.Sprintf("Waited for %v seconds", input.Seconds)}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func emptyParameters() map[string]interface{} {
	return map[string]interface{}{
		"type":                 "object",
		"properties":           map[string]interface{}{},
		"additionalProperties": false,
	}
}
