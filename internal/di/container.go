package di

import (
	"context"
	"fmt"

	"browser-harness/internal/adapter/resolver"
	"browser-harness/internal/adapter/tool"
	"browser-harness/internal/application/port/input"
	"browser-harness/internal/application/port/output"
	"browser-harness/internal/application/service"
	"browser-harness/internal/config"
	"browser-harness/internal/infrastructure/browser/rod"
	"browser-harness/internal/infrastructure/llm/gemini"
	"browser-harness/internal/infrastructure/llm/langchain"
	"browser-harness/internal/infrastructure/llm/openrouter"
	"browser-harness/internal/infrastructure/logger"
	"browser-harness/internal/usecase/dispatcher"
	"browser-harness/internal/usecase/executor"
)

type Container struct {
	Browser      output.BrowserPort
	Session      *service.Session
	Trajectory   *openrouter.OpenRouterAdapter
	ActionModel  output.CompletionPort
	Logger       output.LoggerPort
	Tools        output.ToolRegistry
	Dispatcher   *dispatcher.Dispatcher
	TaskExecutor input.TaskExecutor
}

// NewContainer launches the browser and wires every component of one
// session. The caller owns Close.
func NewContainer(ctx context.Context, cfg *config.Config, ui output.UserInteractionPort) (*Container, error) {
	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.File = cfg.Log.File
	log, err := logger.NewLoggerAdapter(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	actionModel, err := NewCompletionModel(ctx, cfg, cfg.Action.Model, log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create action model: %w", err)
	}
	structuredModel, err := NewCompletionModel(ctx, cfg, cfg.Action.StructuredOutputModel, log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create structured output model: %w", err)
	}

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.Browser.Headless
	browserCfg.StartURL = cfg.Browser.StartURL
	browserCfg.StartTimeout = cfg.Browser.Timeout
	browserCfg.NewTabWait = cfg.Browser.NewTabWait
	browserCfg.Logger = log

	stop := ui.StartSpinner("Starting browser session...")
	browser, err := rod.NewBrowserAdapter(ctx, browserCfg)
	stop()
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}
	log.Info("Browser session started", "headless", cfg.Browser.Headless, "startURL", cfg.Browser.StartURL)

	llmCfg := openrouter.DefaultConfig(cfg.Trajectory.APIKey, cfg.Trajectory.Model)
	if cfg.Trajectory.BaseURL != "" {
		llmCfg.BaseURL = cfg.Trajectory.BaseURL
	}
	llmCfg.Logger = log
	trajectory := openrouter.NewOpenRouterAdapter(llmCfg)

	session := service.NewSession(browser)

	grounder := resolver.NewGrounder(browser, actionModel, log)
	resolvers := resolver.NewSelector(
		resolver.NewDirectResolver(grounder, browser, log),
		resolver.NewVisualAgentResolver(browser, trajectory, resolver.VisualConfig{
			Model:    cfg.Trajectory.CUAModel,
			MaxSteps: cfg.Trajectory.CUAMaxSteps,
		}, log),
	)

	tools := service.NewToolRegistry()
	if err := tool.RegisterAll(tools, tool.Deps{
		Session:       session,
		ActionModel:   actionModel,
		Locator:       grounder,
		Resolvers:     resolvers,
		ActionTimeout: cfg.Trajectory.ActionTimeout,
		Logger:        log,
	}); err != nil {
		session.Close()
		log.Close()
		return nil, err
	}

	disp := dispatcher.New(tools, session, log)
	uc := executor.New(trajectory, structuredModel, session, tools, disp, ui, log, executor.Config{
		SystemPrompt: cfg.Trajectory.SystemPrompt,
		MaxSteps:     cfg.Trajectory.MaxSteps,
		Model:        cfg.Trajectory.Model,
		ReplayFile:   cfg.Trajectory.ReplayFile,
	})

	return &Container{
		Browser:      browser,
		Session:      session,
		Trajectory:   trajectory,
		ActionModel:  actionModel,
		Logger:       log,
		Tools:        tools,
		Dispatcher:   disp,
		TaskExecutor: uc,
	}, nil
}

// NewCompletionModel picks the client for the configured action provider.
// OpenAI and Anthropic go through langchaingo, Gemini through the genai SDK
// and OpenRouter through the trajectory endpoint.
func NewCompletionModel(ctx context.Context, cfg *config.Config, model string, log output.LoggerPort) (output.CompletionPort, error) {
	provider := cfg.Action.Provider
	switch provider {
	case config.ProviderOpenAI, config.ProviderAnthropic:
		return langchain.New(langchain.Config{
			Provider: provider,
			APIKey:   cfg.ActionAPIKey(),
			Model:    model,
			Logger:   log,
		})
	case config.ProviderGemini:
		return gemini.New(ctx, gemini.Config{
			APIKey: cfg.ActionAPIKey(),
			Model:  model,
			Logger: log,
		})
	case config.ProviderOpenRouter:
		orCfg := openrouter.DefaultConfig(cfg.ActionAPIKey(), model)
		if cfg.Trajectory.BaseURL != "" {
			orCfg.BaseURL = cfg.Trajectory.BaseURL
		}
		orCfg.Logger = log
		return openrouter.NewOpenRouterAdapter(orCfg), nil
	}
	return nil, fmt.Errorf("unknown action provider %q", provider)
}

func (c *Container) Close() {
	if c.Session != nil {
		if err := c.Session.Close(); err != nil && c.Logger != nil {
			c.Logger.Warn("Browser close failed", "error", err)
		}
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
