package tool

import (
	"fmt"
	"time"

	"browser-harness/internal/application/port/output"
)

type Deps struct {
	Session       output.SessionPort
	ActionModel   output.CompletionPort
	Locator       output.ElementLocator
	Resolvers     ResolverSelector
	ActionTimeout time.Duration
	Logger        output.LoggerPort
}

// Catalog returns the browser tools in the order they are offered to the model.
func Catalog(deps Deps) []output.ToolPort {
	browser := deps.Session.Browser()
	return []output.ToolPort{
		NewCloseTool(deps.Session),
		NewWaitTool(),
		NewBackTool(browser),
		NewNavigateTool(browser, deps.ActionTimeout),
		NewDetectIframeTool(browser),
		NewScrollTool(browser),
		NewActTool(deps.Resolvers, deps.ActionTimeout, deps.Logger),
		NewExtractTool(browser, deps.ActionModel, deps.Logger),
		NewObserveTool(deps.Locator),
		NewScreenshotTool(browser),
	}
}

func RegisterAll(registry output.ToolRegistry, deps Deps) error {
	for _, t := range Catalog(deps) {
		if err := registry.Register(t); err != nil {
			return fmt.Errorf("register %s: %w", t.Name(), err)
		}
	}
	return nil
}
