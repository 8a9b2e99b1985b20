package output

import "context"

type UserInteractionPort interface {
	Ask(ctx context.Context, question string) (string, error)
	AskSecret(ctx context.Context, question string) (string, error)

	// StartSpinner shows a progress indicator until the returned stop func runs.
	StartSpinner(message string) (stop func())

	ShowStep(ctx context.Context, step, maxSteps int)
	ShowToolStart(ctx context.Context, toolName, arguments string)
	ShowToolResult(ctx context.Context, toolName, result string, isError bool)
	StreamText(ctx context.Context, chunk string)
	ShowFinal(ctx context.Context, answer string)
}
