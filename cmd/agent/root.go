package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"browser-harness/internal/application/port/input"
	"browser-harness/internal/application/port/output"
	"browser-harness/internal/config"
	"browser-harness/internal/domain/entity"
	"browser-harness/internal/infrastructure/env"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runFunc executes one query against a fresh browser session.
type runFunc func(ctx context.Context, cfg *config.Config, ui output.UserInteractionPort, req input.TaskRequest) (*entity.TrajectoryResult, error)

var keyLabels = map[string]string{
	"OPENROUTER_API_KEY":           "OpenRouter",
	"OPENAI_API_KEY":               "OpenAI",
	"ANTHROPIC_API_KEY":            "Anthropic",
	"GOOGLE_GENERATIVE_AI_API_KEY": "Gemini",
}

var keyHints = map[string]string{
	"GOOGLE_GENERATIVE_AI_API_KEY": " (https://aistudio.google.com/apikey)",
}

func newRootCmd(ui output.UserInteractionPort, run runFunc) *cobra.Command {
	v := viper.New()
	var configFile, schemaArg string

	cmd := &cobra.Command{
		Use:          "agent [query]",
		Short:        "Answer a question by driving a browser with an LLM",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if _, err := env.Load("."); err != nil {
				return err
			}
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "🤘 Welcome to the browser agent!")
			fmt.Fprintln(out, "Setting up your environment...")
			if err := promptMissingKeys(ctx, cfg, ui, out); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			schema, err := readSchema(schemaArg)
			if err != nil {
				return err
			}

			var query string
			if len(args) > 0 {
				query = args[0]
			} else {
				query, err = ui.Ask(ctx, color.YellowString("\n\nEnter your query: "))
				if err != nil {
					return err
				}
			}
			query = strings.TrimSpace(query)
			if query == "" {
				return errors.New("query must not be empty")
			}

			result, err := run(ctx, cfg, ui, input.TaskRequest{Query: query, Schema: schema})
			if err != nil {
				return err
			}
			if len(result.Structured) > 0 {
				fmt.Fprintln(out, color.GreenString("\nStructured output:"))
				fmt.Fprintln(out, indentJSON(result.Structured))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default is ./config.yaml)")
	flags.StringVar(&schemaArg, "schema", "", "JSON schema for structured output, inline or a file path")
	flags.Int("max-steps", 0, "maximum trajectory steps")
	flags.Bool("headless", false, "run the browser without a window")
	flags.String("start-url", "", "page to open before the first step")
	flags.String("replay", "", "write the action replay to this file")

	for key, flag := range map[string]string{
		"trajectory.max_steps":   "max-steps",
		"browser.headless":       "headless",
		"browser.start_url":      "start-url",
		"trajectory.replay_file": "replay",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
	return cmd
}

// promptMissingKeys asks for every credential the configured providers
// need and keeps the answers in cfg only.
func promptMissingKeys(ctx context.Context, cfg *config.Config, ui output.UserInteractionPort, out io.Writer) error {
	missing := cfg.MissingKeys()
	if len(missing) == 0 {
		return nil
	}

	for _, key := range missing {
		label := keyLabels[key.EnvName]
		question := color.YellowString("No %s API key found. ", label) +
			color.HiBlackString("%s\n\n", key.Purpose) +
			color.CyanString("Please enter your %s API key%s: ", label, keyHints[key.EnvName])
		answer, err := ui.AskSecret(ctx, question)
		if err != nil {
			return err
		}
		*key.Target = answer
	}

	fmt.Fprintln(out, "\nAPI keys have been set for this session.")
	fmt.Fprintln(out, "To persist these keys, add them to your .env file.")
	return nil
}

// readSchema accepts inline JSON or a path to a JSON file.
func readSchema(arg string) (json.RawMessage, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, nil
	}

	data := []byte(arg)
	if !strings.HasPrefix(arg, "{") {
		b, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("read schema file: %w", err)
		}
		data = b
	}

	var probe map[string]interface{}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("schema is not a JSON object: %w", err)
	}
	return json.RawMessage(data), nil
}

func indentJSON(raw json.RawMessage) string {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(b)
}
