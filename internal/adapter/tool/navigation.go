package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"browser-harness/internal/application/port/output"
	"browser-harness/internal/domain/entity"
)

const defaultActionTimeout = 10 * time.Second

var (
	_ output.TimeoutPolicy = (*NavigateTool)(nil)
	_ output.TimeoutPolicy = (*ActTool)(nil)
)

type NavigateTool struct {
	browser output.BrowserPort
	timeout time.Duration
}

func NewNavigateTool(browser output.BrowserPort, timeout time.Duration) *NavigateTool {
	if timeout <= 0 {
		timeout = defaultActionTimeout
	}
	return &NavigateTool{browser: browser, timeout: timeout}
}

func (t *NavigateTool) Name() entity.ToolName { return entity.ToolNavigate }
func (t *NavigateTool) Description() string {
	return "Navigate to a URL in the browser. Only use this tool with URLs you're confident will work and stay up to date. Otherwise use https://google.com as the starting point"
}
func (t *NavigateTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to navigate to",
			},
		},
		"required":             []string{"url"},
		"additionalProperties": false,
	}
}

func (t *NavigateTool) Timeout(map[string]interface{}) time.Duration {
	return t.timeout
}

func (t *NavigateTool) TimedOutMessage(args map[string]interface{}, after time.Duration) string {
	return fmt.Sprintf("Navigation timed out after %s: %v", after, args["url"])
}

func (t *NavigateTool) Execute(ctx context.Context, args string) (*output.ToolOutput, error) {
	var input struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return nil, err
	}
	if err := t.browser.Navigate(ctx, input.URL); err != nil {
		return nil, err
	}
	return &output.ToolOutput{Text: "Navigated to: " + input.URL}, nil
}

type BackTool struct {
	browser output.BrowserPort
}

func NewBackTool(browser output.BrowserPort) *BackTool {
	return &BackTool{browser: browser}
}

func (t *BackTool) Name() entity.ToolName { return entity.ToolBack }
func (t *BackTool) Description() string   { return "Go back to the previous page" }
func (t *BackTool) Parameters() map[string]interface{} {
	return emptyParameters()
}

func (t *BackTool) Execute(ctx context.Context, args string) (*output.ToolOutput, error) {
	if err := t.browser.GoBack(ctx); err != nil {
		return nil, err
	}
	return &output.ToolOutput{Text: "Navigated back"}, nil
}

type ScrollTool struct {
	browser output.BrowserPort
}

func NewScrollTool(browser output.BrowserPort) *ScrollTool {
	return &ScrollTool{browser: browser}
}

func (t *ScrollTool) Name() entity.ToolName { return entity.ToolScroll }
func (t *ScrollTool) Description() string   { return "Scroll one viewport height down" }
func (t *ScrollTool) Parameters() map[string]interface{} {
	return emptyParameters()
}

func (t *ScrollTool) Execute(ctx context.Context, args string) (*output.ToolOutput, error) {
	if err := t.browser.ScrollViewport(ctx); err != nil {
		return nil, err
	}
	return &output.ToolOutput{Text: "Scrolled one viewport height down"}, nil
}
