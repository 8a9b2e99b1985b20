package tool

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"browser-harness/internal/application/port/output"
	"browser-harness/internal/domain/entity"
	"browser-harness/internal/domain/textclean"
	"browser-harness/internal/infrastructure/prompts"
)

var (
	_ output.ResultFormatter = (*ExtractTool)(nil)
	_ output.ResultFormatter = (*ObserveTool)(nil)
	_ output.ResultFormatter = (*ScreenshotTool)(nil)
)

type DetectIframeTool struct {
	browser output.BrowserPort
}

func NewDetectIframeTool(browser output.BrowserPort) *DetectIframeTool {
	return &DetectIframeTool{browser: browser}
}

func (t *DetectIframeTool) Name() entity.ToolName { return entity.ToolDetectIframe }
func (t *DetectIframeTool) Description() string   { return "Check if the page contains an iframe" }
func (t *DetectIframeTool) Parameters() map[string]interface{} {
	return emptyParameters()
}

func (t *DetectIframeTool) Execute(ctx context.Context, args string) (*output.ToolOutput, error) {
	frames, err := t.browser.Iframes(ctx)
	if err != nil {
		return nil, err
	}
	unsupported := false
	for _, f := range frames {
		if f.Method == entity.MethodNotSupported {
			unsupported = true
			break
		}
	}
	return &output.ToolOutput{Text: strconv.FormatBool(unsupported)}, nil
}

type ExtractTool struct {
	browser output.BrowserPort
	model   output.CompletionPort
	logger  output.LoggerPort
}

func NewExtractTool(browser output.BrowserPort, model output.CompletionPort, logger output.LoggerPort) *ExtractTool {
	return &ExtractTool{browser: browser, model: model, logger: logger}
}

func (t *ExtractTool) Name() entity.ToolName { return entity.ToolExtract }
func (t *ExtractTool) Description() string   { return "Extracts text from the current page." }
func (t *ExtractTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"searchInstruction": map[string]interface{}{
				"type":        "string",
				"description": "If you want to extract specific data from the page, describe what you want to extract here in a sentence or two. Otherwise, leave blank.",
			},
		},
		"additionalProperties": false,
	}
}

func (t *ExtractTool) Execute(ctx context.Context, args string) (*output.ToolOutput, error) {
	var input struct {
		SearchInstruction string `json:"searchInstruction"`
	}
	if args != "" {
		if err := json.Unmarshal([]byte(args), &input); err != nil {
			return nil, err
		}
	}

	text, err := t.browser.PageText(ctx)
	if err != nil {
		return nil, err
	}
	content := textclean.CleanString(text)

	if strings.TrimSpace(input.SearchInstruction) == "" {
		return &output.ToolOutput{Text: content}, nil
	}

	t.logger.Debug("Extracting with instruction", "instruction", input.SearchInstruction, "contentLen", len(content))
	prompt, err := prompts.Extract(prompts.ExtractData{Instruction: input.SearchInstruction, Content: content})
	if err != nil {
		return nil, err
	}
	answer, err := t.model.Complete(ctx, output.CompletionRequest{System: prompts.ExtractSystem, Prompt: prompt})
	if err != nil {
		return nil, err
	}
	return &output.ToolOutput{Text: strings.TrimSpace(answer)}, nil
}

func (t *ExtractTool) FormatResult(out *output.ToolOutput) []entity.ContentBlock {
	return []entity.ContentBlock{entity.TextBlock("Extracted content:\n" + out.Text)}
}

type ObserveTool struct {
	locator output.ElementLocator
}

func NewObserveTool(locator output.ElementLocator) *ObserveTool {
	return &ObserveTool{locator: locator}
}

func (t *ObserveTool) Name() entity.ToolName { return entity.ToolObserve }
func (t *ObserveTool) Description() string {
	return "Observes elements on the web page. Use this tool to observe elements that you can later use in an action. Use observe instead of extract when dealing with actionable (interactable) elements rather than text. More often than not, you'll want to use extract instead of observe when dealing with scraping or extracting structured text."
}
func (t *ObserveTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"instruction": map[string]interface{}{
				"type":        "string",
				"description": "Instruction for observation (e.g., 'find the login button'). This instruction must be extremely specific.",
			},
		},
		"required":             []string{"instruction"},
		"additionalProperties": false,
	}
}

func (t *ObserveTool) Execute(ctx context.Context, args string) (*output.ToolOutput, error) {
	var input struct {
		Instruction string `json:"instruction"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return nil, err
	}

	observed, err := t.locator.Observe(ctx, input.Instruction)
	if err != nil {
		return nil, err
	}
	if observed == nil {
		observed = []entity.ObservedElement{}
	}
	data, err := json.Marshal(observed)
	if err != nil {
		return nil, err
	}
	return &output.ToolOutput{Text: string(data)}, nil
}

func (t *ObserveTool) FormatResult(out *output.ToolOutput) []entity.ContentBlock {
	return []entity.ContentBlock{entity.TextBlock("Observations: " + out.Text)}
}

type ScreenshotTool struct {
	browser output.BrowserPort
}

func NewScreenshotTool(browser output.BrowserPort) *ScreenshotTool {
	return &ScreenshotTool{browser: browser}
}

func (t *ScreenshotTool) Name() entity.ToolName { return entity.ToolScreenshot }
func (t *ScreenshotTool) Description() string {
	return "Takes a screenshot of the current page. Use this tool to learn where you are on the page when controlling the browser. Only use this tool when the other tools are not sufficient to get the information you need."
}
func (t *ScreenshotTool) Parameters() map[string]interface{} {
	return emptyParameters()
}

func (t *ScreenshotTool) Execute(ctx context.Context, args string) (*output.ToolOutput, error) {
	shot, err := t.browser.Screenshot(ctx)
	if err != nil {
		return nil, err
	}
	return &output.ToolOutput{Binary: shot.Data, MIME: shot.MIMEType()}, nil
}

func (t *ScreenshotTool) FormatResult(out *output.ToolOutput) []entity.ContentBlock {
	return []entity.ContentBlock{entity.ImageBlock(out.Binary, out.MIME)}
}
