package prompts

import (
	"embed"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

const (
	ExtractSystem    = "You are a helpful assistant that can extract data from a web page."
	GroundSystem     = "You map natural-language browser actions onto page elements. You answer with JSON only."
	StructuredSystem = "You turn web browsing transcripts into structured data. You answer with JSON only."
)
