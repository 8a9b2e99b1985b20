// Package config holds the explicit configuration passed through the call
// chain. Nothing here writes to the process environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// providerModels holds the action and structured output models used when
// none is configured.
var providerModels = map[string][2]string{
	ProviderOpenAI:     {"gpt-4o", "gpt-4o-mini"},
	ProviderAnthropic:  {"claude-3-7-sonnet-latest", "claude-3-5-haiku-latest"},
	ProviderGemini:     {"gemini-2.0-flash", "gemini-2.0-flash"},
	ProviderOpenRouter: {"openai/gpt-4o", "openai/gpt-4o-mini"},
}

const DefaultSystemPrompt = "You are a helpful assistant that can browse the web. You are given a prompt and you may need to browse the web to find the answer. You may not need to browse the web at all; you may already know the answer. Do not ask follow up questions; I trust your judgement."

type Config struct {
	Trajectory TrajectoryConfig `mapstructure:"trajectory"`
	Action     ActionConfig     `mapstructure:"action"`
	Browser    BrowserConfig    `mapstructure:"browser"`
	Log        LogConfig        `mapstructure:"log"`
}

// TrajectoryConfig covers the reasoning model and the visual sub-agent,
// both served by an OpenAI-compatible endpoint.
type TrajectoryConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Model         string        `mapstructure:"model"`
	CUAModel      string        `mapstructure:"cua_model"`
	CUAMaxSteps   int           `mapstructure:"cua_max_steps"`
	MaxSteps      int           `mapstructure:"max_steps"`
	SystemPrompt  string        `mapstructure:"system_prompt"`
	ActionTimeout time.Duration `mapstructure:"action_timeout"`
	ReplayFile    string        `mapstructure:"replay_file"`
}

// ActionConfig covers the model behind act/observe grounding, extraction
// summaries and structured output.
type ActionConfig struct {
	Provider              string `mapstructure:"provider"`
	Model                 string `mapstructure:"model"`
	StructuredOutputModel string `mapstructure:"structured_output_model"`
	OpenAIKey             string `mapstructure:"openai_api_key"`
	AnthropicKey          string `mapstructure:"anthropic_api_key"`
	GeminiKey             string `mapstructure:"gemini_api_key"`
}

type BrowserConfig struct {
	Headless   bool          `mapstructure:"headless"`
	StartURL   string        `mapstructure:"start_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	NewTabWait time.Duration `mapstructure:"new_tab_wait"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// envBindings maps config keys to the environment variable names users
// already have in their .env files.
var envBindings = map[string]string{
	"trajectory.api_key":             "OPENROUTER_API_KEY",
	"trajectory.base_url":            "OPENROUTER_BASE_URL",
	"trajectory.model":               "OPENROUTER_MODEL_NAME",
	"trajectory.cua_model":           "CUA_MODEL",
	"trajectory.cua_max_steps":       "CUA_MAX_STEPS",
	"trajectory.max_steps":           "MAX_STEPS",
	"trajectory.system_prompt":       "SYSTEM_PROMPT",
	"trajectory.action_timeout":      "ACTION_TIMEOUT",
	"trajectory.replay_file":         "REPLAY_FILE",
	"action.provider":                "ACTION_PROVIDER",
	"action.model":                   "ACTION_MODEL",
	"action.structured_output_model": "STRUCTURED_OUTPUT_MODEL",
	"action.openai_api_key":          "OPENAI_API_KEY",
	"action.anthropic_api_key":       "ANTHROPIC_API_KEY",
	"action.gemini_api_key":          "GOOGLE_GENERATIVE_AI_API_KEY",
	"browser.headless":               "HEADLESS",
	"browser.start_url":              "START_URL",
	"browser.timeout":                "BROWSER_TIMEOUT",
	"browser.new_tab_wait":           "NEW_TAB_WAIT",
	"log.level":                      "LOG_LEVEL",
	"log.file":                       "LOG_FILE",
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("trajectory.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("trajectory.model", "anthropic/claude-3.7-sonnet")
	v.SetDefault("trajectory.cua_model", "anthropic/claude-3.7-sonnet")
	v.SetDefault("trajectory.cua_max_steps", 2)
	v.SetDefault("trajectory.max_steps", 50)
	v.SetDefault("trajectory.system_prompt", DefaultSystemPrompt)
	v.SetDefault("trajectory.action_timeout", 10*time.Second)
	v.SetDefault("action.provider", ProviderOpenAI)
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.start_url", "https://google.com")
	v.SetDefault("browser.timeout", 10*time.Second)
	v.SetDefault("browser.new_tab_wait", 3*time.Second)
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.file", "log/agent.log")
}

// BindEnv wires every key to its environment variable.
func BindEnv(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	return nil
}

// Load reads an optional config file, the environment and any flags
// already bound on v.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return nil, err
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || file != "" {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Action.Provider = strings.ToLower(strings.TrimSpace(cfg.Action.Provider))
	if models, ok := providerModels[cfg.Action.Provider]; ok {
		if cfg.Action.Model == "" {
			cfg.Action.Model = models[0]
		}
		if cfg.Action.StructuredOutputModel == "" {
			cfg.Action.StructuredOutputModel = models[1]
		}
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Action.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOpenRouter:
	default:
		return fmt.Errorf("unknown action provider %q", c.Action.Provider)
	}
	if c.Trajectory.MaxSteps <= 0 {
		return fmt.Errorf("max steps must be positive, got %d", c.Trajectory.MaxSteps)
	}
	if c.Trajectory.CUAMaxSteps <= 0 {
		return fmt.Errorf("cua max steps must be positive, got %d", c.Trajectory.CUAMaxSteps)
	}
	if c.Trajectory.ActionTimeout <= 0 {
		return fmt.Errorf("action timeout must be positive")
	}
	if missing := c.MissingKeys(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, k := range missing {
			names[i] = k.EnvName
		}
		return fmt.Errorf("missing API keys: %s", strings.Join(names, ", "))
	}
	return nil
}

// APIKey describes a credential the session needs and where it lives.
type APIKey struct {
	EnvName string
	Purpose string
	Target  *string
}

// MissingKeys lists the credentials the configured providers still need.
func (c *Config) MissingKeys() []APIKey {
	var missing []APIKey
	if c.Trajectory.APIKey == "" {
		missing = append(missing, APIKey{
			EnvName: "OPENROUTER_API_KEY",
			Purpose: "We use " + c.Trajectory.Model + " to power the agent trajectory reasoning.",
			Target:  &c.Trajectory.APIKey,
		})
	}
	if key := c.actionKey(); key != nil && *key.Target == "" {
		missing = append(missing, *key)
	}
	return missing
}

// ActionAPIKey returns the key for the configured action provider. The
// openrouter provider shares the trajectory key.
func (c *Config) ActionAPIKey() string {
	if c.Action.Provider == ProviderOpenRouter {
		return c.Trajectory.APIKey
	}
	if key := c.actionKey(); key != nil {
		return *key.Target
	}
	return ""
}

func (c *Config) actionKey() *APIKey {
	purpose := "We use " + c.Action.Model + " to power the agent action execution."
	switch c.Action.Provider {
	case ProviderOpenAI:
		return &APIKey{EnvName: "OPENAI_API_KEY", Purpose: purpose, Target: &c.Action.OpenAIKey}
	case ProviderAnthropic:
		return &APIKey{EnvName: "ANTHROPIC_API_KEY", Purpose: purpose, Target: &c.Action.AnthropicKey}
	case ProviderGemini:
		return &APIKey{EnvName: "GOOGLE_GENERATIVE_AI_API_KEY", Purpose: purpose, Target: &c.Action.GeminiKey}
	}
	return nil
}
