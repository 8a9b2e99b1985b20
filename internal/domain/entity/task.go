package entity

import (
	"encoding/json"
	"time"
)

type TrajectoryResult struct {
	ID          string
	FinalAnswer string
	Steps       int
	Transcript  []Message
	Structured  json.RawMessage
}

type ReplayEntry struct {
	Step      int          `json:"step"`
	Tool      ToolName     `json:"tool"`
	Arguments string       `json:"arguments"`
	Status    ActionStatus `json:"status"`
	Duration  int64        `json:"duration_ms"`
	URL       string       `json:"url,omitempty"`
	At        time.Time    `json:"at"`
}
