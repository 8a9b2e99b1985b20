package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"browser-harness/internal/adapter/tool"
	"browser-harness/internal/application/port/input"
	"browser-harness/internal/application/port/output"
	"browser-harness/internal/application/service"
	"browser-harness/internal/domain/entity"
	"browser-harness/internal/infrastructure/logger"
	"browser-harness/internal/testutil"
	"browser-harness/internal/usecase/dispatcher"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	browser    *testutil.FakeBrowser
	llm        *testutil.ScriptedLLM
	actions    *testutil.ScriptedCompletion
	structured *testutil.ScriptedCompletion
	ui         *testutil.RecordingUI
	uc         *UseCase
}

type noResolvers struct{}

func (noResolvers) Select(bool) output.ActionResolver { return nil }

type nopLocator struct{}

func (nopLocator) Observe(context.Context, string) ([]entity.ObservedElement, error) {
	return nil, nil
}

func newHarness(t *testing.T, responses []entity.Message, cfg Config) *harness {
	t.Helper()
	h := &harness{
		browser:    &testutil.FakeBrowser{Text: "Example Domain\nThis domain is for use in illustrative examples in documents."},
		llm:        &testutil.ScriptedLLM{Responses: responses},
		actions:    &testutil.ScriptedCompletion{Answer: "Example Domain"},
		structured: &testutil.ScriptedCompletion{},
		ui:         &testutil.RecordingUI{},
	}

	session := service.NewSession(h.browser)
	registry := service.NewToolRegistry()
	require.NoError(t, tool.RegisterAll(registry, tool.Deps{
		Session:     session,
		ActionModel: h.actions,
		Locator:     nopLocator{},
		Resolvers:   noResolvers{},
		Logger:      logger.NewNop(),
	}))
	d := dispatcher.New(registry, session, logger.NewNop())

	h.uc = New(h.llm, h.structured, session, registry, d, h.ui, logger.NewNop(), cfg)
	return h
}

func TestExecute_TopHeadlineScenario(t *testing.T) {
	h := newHarness(t, []entity.Message{
		testutil.ToolCallMessage("c1", "navigate", `{"url":"https://example.com"}`),
		testutil.ToolCallMessage("c2", "extract", `{"searchInstruction":"top headline"}`),
		testutil.AnswerMessage("The top headline on example.com is \"Example Domain\"."),
	}, Config{SystemPrompt: "sys"})

	result, err := h.uc.Execute(context.Background(), input.TaskRequest{Query: "what is the top headline on example.com"})
	require.NoError(t, err)

	assert.Equal(t, "The top headline on example.com is \"Example Domain\".", result.FinalAnswer)
	assert.Equal(t, 3, result.Steps)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 1, h.browser.CloseCount)
	assert.Equal(t, []string{"navigate", "extract"}, h.ui.Started)
	assert.Empty(t, h.ui.Failed)
	assert.Equal(t, result.FinalAnswer, h.ui.Final)
	assert.Contains(t, h.ui.Streamed.String(), "Example Domain")

	require.Len(t, h.actions.Requests, 1)
	assert.Contains(t, h.actions.Requests[0].Prompt, "top headline")

	last := h.llm.Requests[2].Messages
	tail := last[len(last)-1]
	assert.Equal(t, entity.RoleTool, tail.Role)
	assert.Equal(t, "c2", tail.ToolCallID)
	assert.Equal(t, "Extracted content:\nExample Domain", tail.Content)

	first := h.llm.Requests[0]
	assert.Equal(t, "sys", first.Messages[0].Content)
	assert.Contains(t, first.Messages[1].Content, "what is the top headline on example.com")
	assert.Len(t, first.Tools, 10)
}

func TestExecute_CloseToolThenFinish(t *testing.T) {
	h := newHarness(t, []entity.Message{
		testutil.ToolCallMessage("c1", "close", `{}`),
		testutil.ToolCallMessage("c2", "navigate", `{"url":"https://example.com"}`),
		testutil.AnswerMessage("done"),
	}, Config{})

	_, err := h.uc.Execute(context.Background(), input.TaskRequest{Query: "q"})
	require.NoError(t, err)

	assert.Equal(t, 1, h.browser.CloseCount)
	assert.Equal(t, []string{"navigate"}, h.ui.Failed)
	assert.Zero(t, h.browser.CallCount())
}

func TestExecute_LLMErrorStillCloses(t *testing.T) {
	h := newHarness(t, nil, Config{})

	_, err := h.uc.Execute(context.Background(), input.TaskRequest{Query: "q"})
	require.Error(t, err)
	assert.Equal(t, 1, h.browser.CloseCount)
}

func TestExecute_StepBudget(t *testing.T) {
	var responses []entity.Message
	for i := 0; i < 5; i++ {
		responses = append(responses, testutil.ToolCallMessage("c", "scroll", `{}`))
	}
	h := newHarness(t, responses, Config{MaxSteps: 3})

	result, err := h.uc.Execute(context.Background(), input.TaskRequest{Query: "q"})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Steps)
	assert.Equal(t, 3, h.llm.RequestCount())
	assert.Equal(t, 1, h.browser.CloseCount)
}

func TestExecute_ScreenshotsFeedModelButNotTranscript(t *testing.T) {
	h := newHarness(t, []entity.Message{
		testutil.ToolCallMessage("c1", "screenshot", `{}`),
		testutil.AnswerMessage("I see the page"),
	}, Config{})

	result, err := h.uc.Execute(context.Background(), input.TaskRequest{Query: "q"})
	require.NoError(t, err)

	sent := h.llm.Requests[1].Messages
	require.GreaterOrEqual(t, len(sent), 2)
	assert.Equal(t, "Screenshot captured.", sent[len(sent)-2].Content)
	assert.True(t, sent[len(sent)-1].HasImages())

	for _, m := range result.Transcript {
		assert.False(t, m.HasImages())
	}
}

func TestExecute_StructuredOutputAndReplay(t *testing.T) {
	replayPath := filepath.Join(t.TempDir(), "runs", "replay.json")
	h := newHarness(t, []entity.Message{
		testutil.ToolCallMessage("c1", "navigate", `{"url":"https://example.com"}`),
		testutil.AnswerMessage("Example Domain"),
	}, Config{ReplayFile: replayPath})
	h.structured.Answer = "  {\"headline\": \"Example Domain\"}\n"

	schema := json.RawMessage(`{"type":"object","properties":{"headline":{"type":"string"}}}`)
	result, err := h.uc.Execute(context.Background(), input.TaskRequest{Query: "headline?", Schema: schema})
	require.NoError(t, err)

	assert.JSONEq(t, `{"headline": "Example Domain"}`, string(result.Structured))
	require.Len(t, h.structured.Requests, 1)
	req := h.structured.Requests[0]
	assert.True(t, req.JSON)
	assert.Contains(t, req.Prompt, `"headline"`)
	assert.Contains(t, req.Prompt, "Navigated to: https://example.com")
	assert.Contains(t, h.llm.Requests[0].Messages[1].Content, string(schema))

	raw, err := os.ReadFile(replayPath)
	require.NoError(t, err)
	var replay replayFile
	require.NoError(t, json.Unmarshal(raw, &replay))
	assert.Equal(t, result.ID, replay.TrajectoryID)
	require.Len(t, replay.Actions, 1)
	assert.Equal(t, entity.ToolNavigate, replay.Actions[0].Tool)
	assert.Equal(t, entity.ActionDone, replay.Actions[0].Status)
	assert.Equal(t, "https://example.com", replay.Actions[0].URL)
}

func TestExecute_StructuredOutputFailureKeepsAnswer(t *testing.T) {
	h := newHarness(t, []entity.Message{testutil.AnswerMessage("answer")}, Config{})
	h.structured.Func = func(output.CompletionRequest) (string, error) {
		return "", errors.New("rate limited")
	}

	result, err := h.uc.Execute(context.Background(), input.TaskRequest{Query: "q", Schema: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Nil(t, result.Structured)
	assert.Equal(t, "answer", result.FinalAnswer)
}

func TestStripScreenshots(t *testing.T) {
	in := []entity.Message{
		{Role: entity.RoleUser, Content: "hi"},
		{Role: entity.RoleUser, ContentBlocks: []entity.ContentBlock{entity.ImageBlock([]byte{1}, "image/jpeg")}},
		{Role: entity.RoleUser, ContentBlocks: []entity.ContentBlock{entity.TextBlock("Result of screenshot:"), entity.ImageBlock([]byte{1}, "image/jpeg")}},
	}

	got := StripScreenshots(in)

	want := []entity.Message{
		{Role: entity.RoleUser, Content: "hi"},
		{Role: entity.RoleUser, Content: "[screenshot omitted]", ContentBlocks: []entity.ContentBlock{}},
		{Role: entity.RoleUser, ContentBlocks: []entity.ContentBlock{entity.TextBlock("Result of screenshot:")}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, in[1].HasImages(), "input must not be mutated")
}

func TestExecute_SessionLostAbortsTrajectory(t *testing.T) {
	var responses []entity.Message
	for i := 0; i < 6; i++ {
		responses = append(responses, testutil.ToolCallMessage("c", "navigate", `{"url":"https://example.com"}`))
	}
	replayPath := filepath.Join(t.TempDir(), "replay.json")
	h := newHarness(t, responses, Config{ReplayFile: replayPath})
	h.browser.Err = fmt.Errorf("%w: browser has disconnected", entity.ErrSessionLost)

	result, err := h.uc.Execute(context.Background(), input.TaskRequest{Query: "q"})
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrSessionLost)
	assert.Contains(t, err.Error(), "step 1")

	require.NotNil(t, result)
	assert.Equal(t, 1, result.Steps)
	assert.Equal(t, 1, h.llm.RequestCount())
	assert.Equal(t, 1, h.browser.CloseCount)
	assert.NotEmpty(t, result.Transcript)
	assert.Empty(t, h.ui.Final)

	raw, err := os.ReadFile(replayPath)
	require.NoError(t, err)
	var replay replayFile
	require.NoError(t, json.Unmarshal(raw, &replay))
	require.Len(t, replay.Actions, 1)
	assert.Equal(t, entity.ActionFailed, replay.Actions[0].Status)
}

func TestExecute_VariablesStayOutOfReplayAndUI(t *testing.T) {
	replayPath := filepath.Join(t.TempDir(), "replay.json")
	h := newHarness(t, []entity.Message{
		testutil.ToolCallMessage("c1", "act", `{"action":"Fill %pw%","hasIframe":false,"variables":{"pw":"s3cret"}}`),
		testutil.AnswerMessage("done"),
	}, Config{ReplayFile: replayPath})

	_, err := h.uc.Execute(context.Background(), input.TaskRequest{Query: "log in"})
	require.NoError(t, err)

	raw, err := os.ReadFile(replayPath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "s3cret")

	var replay replayFile
	require.NoError(t, json.Unmarshal(raw, &replay))
	require.Len(t, replay.Actions, 1)
	assert.JSONEq(t, `{"action":"Fill %pw%","hasIframe":false,"variables":{"pw":"***"}}`, replay.Actions[0].Arguments)

	require.Len(t, h.ui.ToolArgs, 1)
	assert.NotContains(t, h.ui.ToolArgs[0], "s3cret")
}
