package entity

type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type UIElement struct {
	ID          int          `json:"id"`
	Tag         string       `json:"tag"`
	Role        string       `json:"role,omitempty"`
	Text        string       `json:"text,omitempty"`
	AriaLabel   string       `json:"aria_label,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	Href        string       `json:"href,omitempty"`
	InputType   string       `json:"input_type,omitempty"`
	Selector    string       `json:"selector"`
	Box         *BoundingBox `json:"box,omitempty"`
}

const MethodNotSupported = "not-supported"

type ObservedElement struct {
	Selector    string   `json:"selector"`
	Description string   `json:"description"`
	Method      string   `json:"method,omitempty"`
	Arguments   []string `json:"arguments,omitempty"`
}

type ActMethod string

const (
	ActClick          ActMethod = "click"
	ActFill           ActMethod = "fill"
	ActType           ActMethod = "type"
	ActPress          ActMethod = "press"
	ActSelect         ActMethod = "select"
	ActHover          ActMethod = "hover"
	ActScrollIntoView ActMethod = "scroll_into_view"
)

// ActInstruction is a grounded action: one element, one method.
type ActInstruction struct {
	ElementID int       `json:"element_id"`
	Method    ActMethod `json:"method"`
	Arguments []string  `json:"arguments,omitempty"`
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
	// Scale converts screenshot pixels to viewport CSS pixels.
	Scale float64
}

func (s *Screenshot) MIMEType() string {
	return "image/" + s.Format
}
