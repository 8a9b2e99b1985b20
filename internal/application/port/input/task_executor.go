package input

import (
	"context"
	"encoding/json"

	"browser-harness/internal/domain/entity"
)

type TaskRequest struct {
	Query  string
	Schema json.RawMessage
}

type TaskExecutor interface {
	Execute(ctx context.Context, req TaskRequest) (*entity.TrajectoryResult, error)
}
