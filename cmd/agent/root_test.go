package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"browser-harness/internal/application/port/input"
	"browser-harness/internal/application/port/output"
	"browser-harness/internal/config"
	"browser-harness/internal/domain/entity"
	"browser-harness/internal/testutil"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

type capturedRun struct {
	cfg    *config.Config
	req    input.TaskRequest
	result *entity.TrajectoryResult
	err    error
}

func (c *capturedRun) run(ctx context.Context, cfg *config.Config, ui output.UserInteractionPort, req input.TaskRequest) (*entity.TrajectoryResult, error) {
	c.cfg = cfg
	c.req = req
	if c.result == nil && c.err == nil {
		return &entity.TrajectoryResult{FinalAnswer: "done"}, nil
	}
	return c.result, c.err
}

func setKeys(t *testing.T, openrouter, openai string) {
	t.Helper()
	t.Setenv("OPENROUTER_API_KEY", openrouter)
	t.Setenv("OPENAI_API_KEY", openai)
	t.Setenv("ACTION_PROVIDER", "openai")
	t.Setenv("MAX_STEPS", "")
	t.Setenv("HEADLESS", "")
	t.Setenv("START_URL", "")
}

func execute(t *testing.T, ui output.UserInteractionPort, c *capturedRun, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(ui, c.run)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_QueryFromArgumentAndFlags(t *testing.T) {
	setKeys(t, "or-key", "oa-key")
	ui := &testutil.RecordingUI{}
	c := &capturedRun{}

	out, err := execute(t, ui, c, "--max-steps", "7", "--headless", "--start-url", "https://example.com", "what is the top headline?")
	require.NoError(t, err)

	assert.Equal(t, "what is the top headline?", c.req.Query)
	assert.Nil(t, c.req.Schema)
	assert.Equal(t, 7, c.cfg.Trajectory.MaxSteps)
	assert.True(t, c.cfg.Browser.Headless)
	assert.Equal(t, "https://example.com", c.cfg.Browser.StartURL)
	assert.Equal(t, "or-key", c.cfg.Trajectory.APIKey)
	assert.Empty(t, ui.Asked)
	assert.Contains(t, out, "Welcome")
	assert.NotContains(t, out, "API keys have been set")
}

func TestRootCmd_DefaultsWithoutFlags(t *testing.T) {
	setKeys(t, "or-key", "oa-key")
	c := &capturedRun{}

	_, err := execute(t, &testutil.RecordingUI{}, c, "q")
	require.NoError(t, err)

	assert.Equal(t, 50, c.cfg.Trajectory.MaxSteps)
	assert.False(t, c.cfg.Browser.Headless)
	assert.Equal(t, "https://google.com", c.cfg.Browser.StartURL)
}

func TestRootCmd_PromptsForMissingKeys(t *testing.T) {
	setKeys(t, "", "")
	ui := &testutil.RecordingUI{Answers: []string{"or-secret", "oa-secret"}}
	c := &capturedRun{}

	out, err := execute(t, ui, c, "q")
	require.NoError(t, err)

	require.Len(t, ui.Asked, 2)
	assert.Contains(t, ui.Asked[0], "No OpenRouter API key found.")
	assert.Contains(t, ui.Asked[0], "Please enter your OpenRouter API key: ")
	assert.Contains(t, ui.Asked[1], "No OpenAI API key found.")
	assert.Equal(t, "or-secret", c.cfg.Trajectory.APIKey)
	assert.Equal(t, "oa-secret", c.cfg.ActionAPIKey())
	assert.Contains(t, out, "API keys have been set for this session.")
	assert.Contains(t, out, "To persist these keys, add them to your .env file.")

	_, set := os.LookupEnv("OPENROUTER_API_KEY")
	assert.True(t, set)
	assert.Empty(t, os.Getenv("OPENROUTER_API_KEY"))
}

func TestRootCmd_EmptyKeyAnswerFailsValidation(t *testing.T) {
	setKeys(t, "", "oa-key")
	ui := &testutil.RecordingUI{Answers: []string{""}}
	c := &capturedRun{}

	_, err := execute(t, ui, c, "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENROUTER_API_KEY")
	assert.Nil(t, c.cfg)
}

func TestRootCmd_InteractiveQuery(t *testing.T) {
	setKeys(t, "or-key", "oa-key")
	ui := &testutil.RecordingUI{Answers: []string{"  find the weather  "}}
	c := &capturedRun{}

	_, err := execute(t, ui, c)
	require.NoError(t, err)

	require.Len(t, ui.Asked, 1)
	assert.Contains(t, ui.Asked[0], "Enter your query: ")
	assert.Equal(t, "find the weather", c.req.Query)
}

func TestRootCmd_EmptyQuery(t *testing.T) {
	setKeys(t, "or-key", "oa-key")
	c := &capturedRun{}

	_, err := execute(t, &testutil.RecordingUI{}, c)
	require.Error(t, err)
	assert.Nil(t, c.cfg)
}

func TestRootCmd_PrintsStructuredOutput(t *testing.T) {
	setKeys(t, "or-key", "oa-key")
	c := &capturedRun{result: &entity.TrajectoryResult{
		FinalAnswer: "done",
		Structured:  json.RawMessage(`{"headline":"Hello"}`),
	}}

	out, err := execute(t, &testutil.RecordingUI{}, c, "--schema", `{"type":"object"}`, "q")
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"object"}`, string(c.req.Schema))
	assert.Contains(t, out, "Structured output:")
	assert.Contains(t, out, "\"headline\": \"Hello\"")
}

func TestRootCmd_RunErrorIsReturned(t *testing.T) {
	setKeys(t, "or-key", "oa-key")
	c := &capturedRun{err: errors.New("browser exploded")}

	_, err := execute(t, &testutil.RecordingUI{}, c, "q")
	assert.EqualError(t, err, "browser exploded")
}

func TestReadSchema(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		schema, err := readSchema("  ")
		require.NoError(t, err)
		assert.Nil(t, schema)
	})

	t.Run("inline", func(t *testing.T) {
		schema, err := readSchema(`{"type":"object","properties":{"title":{"type":"string"}}}`)
		require.NoError(t, err)
		assert.Contains(t, string(schema), `"title"`)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "schema.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"type":"object"}`), 0o644))

		schema, err := readSchema(path)
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"object"}`, string(schema))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readSchema(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("not an object", func(t *testing.T) {
		_, err := readSchema(`{"type":`)
		assert.Error(t, err)
	})
}
