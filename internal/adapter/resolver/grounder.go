package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"browser-harness/internal/application/port/output"
	"browser-harness/internal/domain/entity"
	"browser-harness/internal/infrastructure/prompts"
)

var _ output.ElementLocator = (*Grounder)(nil)

// Grounder maps natural-language descriptions onto the numbered elements
// of the current page using the action model.
type Grounder struct {
	browser output.BrowserPort
	model   output.CompletionPort
	logger  output.LoggerPort
}

func NewGrounder(browser output.BrowserPort, model output.CompletionPort, logger output.LoggerPort) *Grounder {
	return &Grounder{browser: browser, model: model, logger: logger}
}

func (g *Grounder) Ground(ctx context.Context, action string, variables map[string]string) (entity.ActInstruction, error) {
	elements, err := g.browser.UIElements(ctx)
	if err != nil {
		return entity.ActInstruction{}, err
	}
	if len(elements) == 0 {
		return entity.ActInstruction{}, fmt.Errorf("no interactive elements on page")
	}

	prompt, err := prompts.Ground(action, elements, variables)
	if err != nil {
		return entity.ActInstruction{}, err
	}

	answer, err := g.model.Complete(ctx, output.CompletionRequest{
		System: prompts.GroundSystem,
		Prompt: prompt,
		JSON:   true,
	})
	if err != nil {
		return entity.ActInstruction{}, fmt.Errorf("grounding request failed: %w", err)
	}

	var inst entity.ActInstruction
	if err := json.Unmarshal([]byte(stripFences(answer)), &inst); err != nil {
		return entity.ActInstruction{}, fmt.Errorf("grounding answer is not JSON: %w", err)
	}
	if inst.ElementID == 0 || inst.Method == "" {
		return entity.ActInstruction{}, fmt.Errorf("no element matches %q", action)
	}
	if !knownElement(elements, inst.ElementID) {
		return entity.ActInstruction{}, fmt.Errorf("model chose unknown element %d", inst.ElementID)
	}

	g.logger.Debug("Grounded action", "action", action, "element", inst.ElementID, "method", inst.Method)
	return inst, nil
}

type observeAnswer struct {
	Elements []struct {
		ElementID   int      `json:"element_id"`
		Description string   `json:"description"`
		Method      string   `json:"method"`
		Arguments   []string `json:"arguments"`
	} `json:"elements"`
}

func (g *Grounder) Observe(ctx context.Context, instruction string) ([]entity.ObservedElement, error) {
	elements, err := g.browser.UIElements(ctx)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.Observe(prompts.ObserveData{Instruction: instruction, Elements: elements})
	if err != nil {
		return nil, err
	}

	answer, err := g.model.Complete(ctx, output.CompletionRequest{
		System: prompts.GroundSystem,
		Prompt: prompt,
		JSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("observe request failed: %w", err)
	}

	var parsed observeAnswer
	if err := json.Unmarshal([]byte(stripFences(answer)), &parsed); err != nil {
		return nil, fmt.Errorf("observe answer is not JSON: %w", err)
	}

	bySelector := make(map[int]string, len(elements))
	for _, el := range elements {
		bySelector[el.ID] = el.Selector
	}

	result := make([]entity.ObservedElement, 0, len(parsed.Elements))
	for _, e := range parsed.Elements {
		selector, ok := bySelector[e.ElementID]
		if !ok {
			continue
		}
		result = append(result, entity.ObservedElement{
			Selector:    selector,
			Description: e.Description,
			Method:      e.Method,
			Arguments:   e.Arguments,
		})
	}
	return result, nil
}

func knownElement(elements []entity.UIElement, id int) bool {
	for _, el := range elements {
		if el.ID == id {
			return true
		}
	}
	return false
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
