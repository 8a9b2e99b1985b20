package entity

type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

type ContentType string

const (
	ContentTypeText     ContentType = "text"
	ContentTypeImage    ContentType = "image"
	ContentTypeThinking ContentType = "thinking"
	ContentTypeToolUse  ContentType = "tool_use"
)

type ImageContent struct {
	Data     []byte
	MIMEType string
}

type ContentBlock struct {
	Type     ContentType
	Text     string
	Image    *ImageContent
	Thinking string
	ToolUse  *ToolCall
}

func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentTypeText, Text: text}
}

func ImageBlock(data []byte, mimeType string) ContentBlock {
	return ContentBlock{Type: ContentTypeImage, Image: &ImageContent{Data: data, MIMEType: mimeType}}
}

type Message struct {
	Role          MessageRole
	Content       string
	ContentBlocks []ContentBlock
	ToolCalls     []ToolCall
	ToolCallID    string
	Name          string
}

// HasImages reports whether any content block carries image data.
func (m Message) HasImages() bool {
	for _, b := range m.ContentBlocks {
		if b.Type == ContentTypeImage && b.Image != nil {
			return true
		}
	}
	return false
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}
