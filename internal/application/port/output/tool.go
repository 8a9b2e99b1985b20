package output

import (
	"context"
	"time"

	"browser-harness/internal/domain/entity"
)

// ToolPort is one entry of the tool catalog. Execute receives arguments
// that already passed schema validation.
type ToolPort interface {
	Name() entity.ToolName
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, arguments string) (*ToolOutput, error)
}

// ToolOutput is the raw result of a tool before formatting.
type ToolOutput struct {
	Text   string
	Binary []byte
	MIME   string
}

// ResultFormatter turns a raw tool output into content blocks for the model.
type ResultFormatter interface {
	FormatResult(out *ToolOutput) []entity.ContentBlock
}

// TimeoutPolicy marks tools whose execution is bounded by a deadline.
// Timeout returns zero when the given call runs unbounded.
type TimeoutPolicy interface {
	Timeout(args map[string]interface{}) time.Duration
	TimedOutMessage(args map[string]interface{}, after time.Duration) string
}

type ToolRegistry interface {
	Register(tool ToolPort) error
	Get(name entity.ToolName) (ToolPort, bool)
	All() []ToolPort
	Definitions() []entity.ToolDefinition
}
