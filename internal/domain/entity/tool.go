package entity

type ToolName string

const (
	ToolClose        ToolName = "close"
	ToolWait         ToolName = "wait"
	ToolBack         ToolName = "back"
	ToolNavigate     ToolName = "navigate"
	ToolDetectIframe ToolName = "detect_iframe"
	ToolScroll       ToolName = "scroll"
	ToolAct          ToolName = "act"
	ToolExtract      ToolName = "extract"
	ToolObserve      ToolName = "observe"
	ToolScreenshot   ToolName = "screenshot"
)

func (t ToolName) String() string {
	return string(t)
}
