package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"browser-harness/internal/application/port/output"
	"browser-harness/internal/domain/entity"
)

// ResolverSelector chooses how an act call reaches the page.
type ResolverSelector interface {
	Select(hasIframe bool) output.ActionResolver
}

type ActTool struct {
	resolvers ResolverSelector
	timeout   time.Duration
	logger    output.LoggerPort
}

func NewActTool(resolvers ResolverSelector, timeout time.Duration, logger output.LoggerPort) *ActTool {
	if timeout <= 0 {
		timeout = defaultActionTimeout
	}
	return &ActTool{resolvers: resolvers, timeout: timeout, logger: logger}
}

func (t *ActTool) Name() entity.ToolName { return entity.ToolAct }
func (t *ActTool) Description() string {
	return `Performs an action on a web page element. Act actions should be as atomic and specific as possible, i.e. "Click the sign in button" or "Type 'hello' into the search input". When deciding to scroll, include a percentage of the page to scroll. For example, "Scroll 50% of the page" or "Scroll to the bottom of the page". AVOID actions that are more than one step, i.e. "Order me pizza" or "Send an email to Paul asking him to call me".`
}
func (t *ActTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"action": map[string]interface{}{
				"type":        "string",
				"description": "The action to perform. Should be as atomic and specific as possible, i.e. 'Click the sign in button' or 'Type 'hello' into the search input'. AVOID actions that are more than one step, i.e. 'Order me pizza' or 'Send an email to Paul asking him to call me'. The instruction should be just as specific as possible, and have a strong correlation to the text on the page. If unsure, use observe before using act.",
			},
			"variables": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": map[string]interface{}{"type": "string"},
				"description":          `Variables used in the action template. ONLY use variables if you're dealing with sensitive data or dynamic content. For example, if you're logging in to a website, you can use a variable for the password. When using variables, you MUST have the variable key in the action template. For example: {"action": "Fill in the password", "variables": {"password": "123456"}}`,
			},
			"hasIframe": map[string]interface{}{
				"type":        "boolean",
				"description": "Whether the page contains an iframe. Use the detect_iframe tool to check.",
			},
		},
		"required":             []string{"action", "hasIframe"},
		"additionalProperties": false,
	}
}

// Timeout bounds the direct path only; the visual agent is bounded by its
// own step budget.
func (t *ActTool) Timeout(args map[string]interface{}) time.Duration {
	if hasIframe, _ := args["hasIframe"].(bool); hasIframe {
		return 0
	}
	return t.timeout
}

func (t *ActTool) TimedOutMessage(args map[string]interface{}, after time.Duration) string {
	return fmt.Sprintf("Action timed out after %s: %v", after, args["action"])
}

func (t *ActTool) Execute(ctx context.Context, args string) (*output.ToolOutput, error) {
	var input struct {
		Action    string            `json:"action"`
		Variables map[string]string `json:"variables"`
		HasIframe bool              `json:"hasIframe"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return nil, err
	}

	resolver := t.resolvers.Select(input.HasIframe)
	t.logger.Debug("Resolving action", "resolver", resolver.Kind(), "action", input.Action)

	if err := resolver.Resolve(ctx, output.ActInput{Action: input.Action, Variables: input.Variables}); err != nil {
		return nil, err
	}
	return &output.ToolOutput{Text: "Action performed: " + input.Action}, nil
}
