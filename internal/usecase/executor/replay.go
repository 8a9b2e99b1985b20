package executor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"browser-harness/internal/application/port/output"
	"browser-harness/internal/domain/entity"
)

type replayFile struct {
	TrajectoryID string               `json:"trajectory_id"`
	Query        string               `json:"query"`
	Actions      []entity.ReplayEntry `json:"actions"`
}

// replayLog records executed actions so a run can be inspected afterwards.
type replayLog struct {
	data replayFile
}

func newReplayLog(id, query string) *replayLog {
	return &replayLog{data: replayFile{TrajectoryID: id, Query: query, Actions: []entity.ReplayEntry{}}}
}

func (r *replayLog) add(step int, tc entity.ToolCall, res entity.ActionResult, session output.SessionPort) {
	entry := entity.ReplayEntry{
		Step:      step,
		Tool:      entity.ToolName(tc.Name),
		Arguments: entity.RedactArguments(tc.Arguments),
		Status:    res.Status,
		Duration:  res.Duration.Milliseconds(),
		At:        time.Now().UTC(),
	}
	if !session.Closed() {
		entry.URL = session.Browser().CurrentURL()
	}
	r.data.Actions = append(r.data.Actions, entry)
}

func (r *replayLog) write(path string) error {
	data, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode replay: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create replay dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write replay: %w", err)
	}
	return nil
}
