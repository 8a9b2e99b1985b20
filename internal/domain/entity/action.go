package entity

import "time"

type ActionStatus string

const (
	ActionPending  ActionStatus = "pending"
	ActionRunning  ActionStatus = "running"
	ActionDone     ActionStatus = "done"
	ActionTimedOut ActionStatus = "timed_out"
	ActionFailed   ActionStatus = "failed"
	ActionRejected ActionStatus = "rejected"
)

// Terminal reports whether the dispatcher is finished with the call.
func (s ActionStatus) Terminal() bool {
	switch s {
	case ActionDone, ActionTimedOut, ActionFailed, ActionRejected:
		return true
	}
	return false
}

type ActionRequest struct {
	ID        string
	ToolName  ToolName
	Arguments string
}

// ActionResult is what a single tool call hands back to the trajectory loop.
// Payload holds the text result, Binary the raw bytes for image results.
type ActionResult struct {
	ToolName      ToolName
	Status        ActionStatus
	Success       bool
	Payload       string
	Binary        []byte
	ContentBlocks []ContentBlock
	Err           error
	Duration      time.Duration
}

// Text returns the text blocks joined, falling back to Payload.
func (r ActionResult) Text() string {
	var text string
	for _, b := range r.ContentBlocks {
		if b.Type == ContentTypeText {
			if text != "" {
				text += "\n"
			}
			text += b.Text
		}
	}
	if text == "" {
		return r.Payload
	}
	return text
}
