package testutil

import (
	"context"
	"strings"
	"sync"

	"browser-harness/internal/application/port/output"
)

var _ output.UserInteractionPort = (*RecordingUI)(nil)

// RecordingUI answers prompts from Answers and records what was shown.
type RecordingUI struct {
	mu       sync.Mutex
	Answers  []string
	Asked    []string
	Steps    int
	Started  []string
	ToolArgs []string
	Failed   []string
	Streamed strings.Builder
	Final    string
	Spinners int
}

func (u *RecordingUI) pop(question string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Asked = append(u.Asked, question)
	if len(u.Answers) == 0 {
		return ""
	}
	a := u.Answers[0]
	u.Answers = u.Answers[1:]
	return a
}

func (u *RecordingUI) Ask(ctx context.Context, question string) (string, error) {
	return u.pop(question), nil
}

func (u *RecordingUI) AskSecret(ctx context.Context, question string) (string, error) {
	return u.pop(question), nil
}

func (u *RecordingUI) StartSpinner(message string) func() {
	u.mu.Lock()
	u.Spinners++
	u.mu.Unlock()
	return func() {}
}

func (u *RecordingUI) ShowStep(ctx context.Context, step, maxSteps int) {
	u.mu.Lock()
	u.Steps = step
	u.mu.Unlock()
}

func (u *RecordingUI) ShowToolStart(ctx context.Context, toolName, arguments string) {
	u.mu.Lock()
	u.Started = append(u.Started, toolName)
	u.ToolArgs = append(u.ToolArgs, arguments)
	u.mu.Unlock()
}

func (u *RecordingUI) ShowToolResult(ctx context.Context, toolName, result string, isError bool) {
	if !isError {
		return
	}
	u.mu.Lock()
	u.Failed = append(u.Failed, toolName)
	u.mu.Unlock()
}

func (u *RecordingUI) StreamText(ctx context.Context, chunk string) {
	u.mu.Lock()
	u.Streamed.WriteString(chunk)
	u.mu.Unlock()
}

func (u *RecordingUI) ShowFinal(ctx context.Context, answer string) {
	u.mu.Lock()
	u.Final = answer
	u.mu.Unlock()
}
